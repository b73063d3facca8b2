package loaders

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

// SiblingReader reads a file next to the one being decoded, name is relative
// to that file's directory. Stores hand one to every Load call.
type SiblingReader func(name string) ([]byte, error)

/** @brief An "interface" for a resource loader. All registered loaders use this. */
type ResourceLoader interface {
	Load(name string, data []byte, siblings SiblingReader) (interface{}, error)
	Unload(resource *resources.Resource) error
}

// Registry holds one loader per resource type.
type Registry struct {
	mu      sync.RWMutex
	loaders map[resources.ResourceType]ResourceLoader
}

func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[resources.ResourceType]ResourceLoader),
	}
}

// DefaultRegistry returns a registry with every built-in loader registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	// NOTE: Auto-register known loader types here.
	_ = r.Register(resources.ResourceTypeText, &TextLoader{})
	_ = r.Register(resources.ResourceTypeBinary, &BinaryLoader{})
	_ = r.Register(resources.ResourceTypeMesh, &BinaryLoader{})
	_ = r.Register(resources.ResourceTypeShader, &ShaderLoader{})
	_ = r.Register(resources.ResourceTypeImage, &ImageLoader{})
	_ = r.Register(resources.ResourceTypeMaterial, &MaterialLoader{})
	_ = r.Register(resources.ResourceTypeBitmapFont, &BitmapFontLoader{})
	_ = r.Register(resources.ResourceTypeSystemFont, &SystemFontLoader{})
	return r
}

func (r *Registry) Register(resourceType resources.ResourceType, loader ResourceLoader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.loaders[resourceType]; exists {
		core.LogError("Loader of type %s already exists and will not be registered.", resourceType)
		return fmt.Errorf("%w: %s", core.ErrLoaderExists, resourceType)
	}
	r.loaders[resourceType] = loader
	core.LogDebug("Loader for type %s registered.", resourceType)
	return nil
}

// Decode turns raw bytes read by a store into the data of the given type.
func (r *Registry) Decode(resourceType resources.ResourceType, name string, data []byte, siblings SiblingReader) (interface{}, error) {
	r.mu.RLock()
	l, ok := r.loaders[resourceType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNoLoader, resourceType)
	}
	return l.Load(name, data, siblings)
}

// Unload releases decoded data through the loader which produced it.
func (r *Registry) Unload(resource *resources.Resource) error {
	if resource == nil {
		return nil
	}
	r.mu.RLock()
	l, ok := r.loaders[resource.Type]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNoLoader, resource.Type)
	}
	return l.Unload(resource)
}

// TypeForPath guesses the resource type from the file extension.
func TypeForPath(p string) resources.ResourceType {
	switch strings.ToLower(path.Ext(p)) {
	case ".txt", ".json", ".xml", ".csv", ".toml", ".yaml", ".yml", ".md":
		return resources.ResourceTypeText
	case ".bytes", ".bin", ".dat":
		return resources.ResourceTypeBinary
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return resources.ResourceTypeImage
	case ".amt":
		return resources.ResourceTypeMaterial
	case ".spv":
		return resources.ResourceTypeShader
	case ".obj", ".ksm", ".mtl":
		return resources.ResourceTypeMesh
	case ".fnt":
		return resources.ResourceTypeBitmapFont
	case ".fontcfg":
		return resources.ResourceTypeSystemFont
	default:
		return resources.ResourceTypeNone
	}
}

// Accepts reports whether a file at p can be decoded as resourceType. Text
// and binary accept any file.
func Accepts(resourceType resources.ResourceType, p string) bool {
	switch resourceType {
	case resources.ResourceTypeText, resources.ResourceTypeBinary, resources.ResourceTypeCustom:
		return true
	}
	return TypeForPath(p) == resourceType
}
