package bundles

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

// BundleSpec lists what goes into one bundle. Assets are project-relative
// paths ("Assets/...") resolved against the source root, a directory adds
// every file below it.
type BundleSpec struct {
	Name         string   `toml:"name"`
	Assets       []string `toml:"assets"`
	Dependencies []string `toml:"dependencies,omitempty"`
}

type packFile struct {
	Bundles []BundleSpec `toml:"bundles"`
}

// ReadBuildSpecs reads a pack description, a list of [[bundles]] tables.
func ReadBuildSpecs(path string) ([]BundleSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pf packFile
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&pf); err != nil {
		return nil, fmt.Errorf("pack file %s: %w", path, err)
	}
	if len(pf.Bundles) == 0 {
		return nil, fmt.Errorf("pack file %s: no bundles", path)
	}
	return pf.Bundles, nil
}

// expandAssets replaces directories with the files below them. Meta and
// hidden files are left out.
func expandAssets(sourceRoot string, assets []string) ([]string, error) {
	var out []string
	for _, a := range assets {
		a = strings.TrimSuffix(resources.ToSlash(a), "/")
		full := filepath.Join(sourceRoot, filepath.FromSlash(a))
		st, err := os.Stat(full)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, a)
			continue
		}

		var found []string
		err = filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".meta") {
				return nil
			}
			rel, err := filepath.Rel(sourceRoot, p)
			if err != nil {
				return err
			}
			found = append(found, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.Sort(found)
		out = append(out, found...)
	}
	return out, nil
}

// Build packs every spec into outDir, one zip archive per bundle, and writes
// the manifest next to them.
func Build(outDir, sourceRoot string, specs []BundleSpec) (*Manifest, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	m := &Manifest{Version: ManifestVersion}
	for _, spec := range specs {
		info := BundleInfo{
			Name:         spec.Name,
			File:         spec.Name + BundleExtension,
			Dependencies: spec.Dependencies,
		}
		assets, err := expandAssets(sourceRoot, spec.Assets)
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", spec.Name, err)
		}
		info.Assets = assets

		bundlePath := filepath.Join(outDir, info.File)
		if err := writeBundle(bundlePath, sourceRoot, info.Assets); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", spec.Name, err)
		}
		hash, err := HashFile(bundlePath)
		if err != nil {
			return nil, err
		}
		info.Hash = hash
		m.Bundles = append(m.Bundles, info)
		core.LogInfo("Packed bundle '%s' with %d assets (%s).", info.Name, len(info.Assets), hash)
	}

	if err := m.index(); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(outDir, DefaultManifestName))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := m.Write(f); err != nil {
		return nil, err
	}
	return m, f.Close()
}

func writeBundle(bundlePath, sourceRoot string, assets []string) error {
	out, err := os.Create(bundlePath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, a := range assets {
		if err := addEntry(zw, sourceRoot, a); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func addEntry(zw *zip.Writer, sourceRoot, asset string) error {
	src, err := os.Open(filepath.Join(sourceRoot, filepath.FromSlash(asset)))
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   asset,
		Method: zip.Deflate,
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
