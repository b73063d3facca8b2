package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
	"github.com/spaghettifunk/anima-resources/engine/resources/loaders"
)

// ResourcesStoreName is stamped on resources served by the resource folder.
const ResourcesStoreName = "resources"

// ResourceFolder loads from the runtime resource root by extension-less key,
// "Foo/Bar" finds Resources/Foo/Bar.png.
type ResourceFolder struct {
	root     string
	registry *loaders.Registry
}

// NewResourceFolder serves files below root, usually
// resources.ResourcesDirectory(dataPath).
func NewResourceFolder(root string, registry *loaders.Registry) *ResourceFolder {
	if registry == nil {
		registry = loaders.DefaultRegistry()
	}
	core.LogInfo("Resource folder initialized with root '%s'.", root)
	return &ResourceFolder{
		root:     root,
		registry: registry,
	}
}

func (rf *ResourceFolder) Root() string {
	return rf.root
}

func (rf *ResourceFolder) Load(key string, resourceType resources.ResourceType) (*resources.Resource, error) {
	key = strings.Trim(resources.ToSlash(key), "/")
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidPath, key)
	}

	file, err := rf.find(key, resourceType)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(file)
	siblings := func(name string) ([]byte, error) {
		p := filepath.Join(dir, filepath.FromSlash(name))
		rel, err := filepath.Rel(rf.root, p)
		if err != nil || !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("%w: %s", core.ErrInvalidPath, name)
		}
		return os.ReadFile(p)
	}
	decoded, err := rf.registry.Decode(resourceType, file, data, siblings)
	if err != nil {
		return nil, err
	}
	return resources.NewResource(path.Base(key), file, resourceType, ResourcesStoreName, len(data), decoded), nil
}

// find picks the file for key. Several files may share the stem, one whose
// extension matches resourceType wins, otherwise the first in name order.
func (rf *ResourceFolder) find(key string, resourceType resources.ResourceType) (string, error) {
	dir := filepath.Join(rf.root, filepath.FromSlash(path.Dir(key)))
	stem := path.Base(key)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", core.ErrAssetNotFound, key)
		}
		return "", err
	}

	fallback := ""
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasSuffix(name, ".meta") {
			continue
		}
		if strings.TrimSuffix(name, path.Ext(name)) != stem {
			continue
		}
		if loaders.TypeForPath(name) == resourceType {
			return filepath.Join(dir, name), nil
		}
		if fallback == "" && loaders.Accepts(resourceType, name) {
			fallback = name
		}
	}
	if fallback == "" {
		return "", fmt.Errorf("%w: %s as %s", core.ErrAssetNotFound, key, resourceType)
	}
	return filepath.Join(dir, fallback), nil
}
