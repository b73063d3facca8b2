package bundles

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

const (
	DefaultManifestName = "bundles.toml"
	ManifestVersion     = 1
	// BundleExtension is appended to a bundle name to build its file name.
	BundleExtension = ".bundle"
)

// Manifest describes every bundle of a build and which assets it carries.
//
//	version = 1
//
//	[[bundles]]
//	name = "heroes"
//	file = "heroes.bundle"
//	hash = "9c2f04bd6e1a7a44"
//	dependencies = ["shared"]
//	assets = ["Assets/Art/Hero.png"]
type Manifest struct {
	Version int          `toml:"version" yaml:"version"`
	Bundles []BundleInfo `toml:"bundles" yaml:"bundles"`

	byName  map[string]int
	byAsset map[string]assetRef
}

type BundleInfo struct {
	Name         string   `toml:"name" yaml:"name"`
	File         string   `toml:"file" yaml:"file"`
	Hash         string   `toml:"hash,omitempty" yaml:"hash,omitempty"`
	Dependencies []string `toml:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Assets       []string `toml:"assets" yaml:"assets"`
}

type assetRef struct {
	bundle int
	// entry is the asset path exactly as stored in the archive
	entry string
}

// assetKey folds an asset path into the form used for lookups. Asset paths
// are case-insensitive, archive entries keep their original spelling.
func assetKey(p string) string {
	return strings.ToLower(resources.ToSlash(p))
}

func ReadManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(m); err != nil {
		return nil, fmt.Errorf("failed to decode bundle manifest: %w", err)
	}
	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadManifest(f)
}

func (m *Manifest) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(m)
}

// WriteYAML renders the manifest for tools that don't read TOML.
func (m *Manifest) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

// index validates the manifest and builds the lookup tables.
func (m *Manifest) index() error {
	if m.Version == 0 {
		m.Version = ManifestVersion
	}
	if m.Version != ManifestVersion {
		return fmt.Errorf("unsupported bundle manifest version %d", m.Version)
	}

	m.byName = make(map[string]int, len(m.Bundles))
	m.byAsset = make(map[string]assetRef)
	for i := range m.Bundles {
		b := &m.Bundles[i]
		if b.Name == "" {
			return fmt.Errorf("bundle %d has no name", i)
		}
		if b.File == "" {
			b.File = b.Name + BundleExtension
		}
		if _, dup := m.byName[b.Name]; dup {
			return fmt.Errorf("bundle %q declared twice", b.Name)
		}
		m.byName[b.Name] = i

		for _, a := range b.Assets {
			a = resources.ToSlash(a)
			key := assetKey(a)
			if prev, dup := m.byAsset[key]; dup {
				return fmt.Errorf("asset %q is packed in both %q and %q", a, m.Bundles[prev.bundle].Name, b.Name)
			}
			m.byAsset[key] = assetRef{bundle: i, entry: a}
		}
	}

	for _, b := range m.Bundles {
		for _, d := range b.Dependencies {
			if _, ok := m.byName[d]; !ok {
				return fmt.Errorf("bundle %q depends on unknown bundle %q", b.Name, d)
			}
		}
	}
	for _, b := range m.Bundles {
		if _, err := m.Resolve(b.Name); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) Bundle(name string) (*BundleInfo, bool) {
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return &m.Bundles[i], true
}

// BundleFor returns the bundle carrying assetPath and the archive entry name.
func (m *Manifest) BundleFor(assetPath string) (*BundleInfo, string, bool) {
	ref, ok := m.byAsset[assetKey(assetPath)]
	if !ok {
		return nil, "", false
	}
	return &m.Bundles[ref.bundle], ref.entry, true
}

// Names lists every bundle name in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Bundles))
	for _, b := range m.Bundles {
		names = append(names, b.Name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns name and all of its transitive dependencies, dependencies
// first. Each bundle appears once.
func (m *Manifest) Resolve(name string) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var order []string

	var visit func(n string, chain []string) error
	visit = func(n string, chain []string) error {
		switch state[n] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", core.ErrDependencyCycle, strings.Join(append(chain, n), " -> "))
		}
		b, ok := m.Bundle(n)
		if !ok {
			return fmt.Errorf("%w: %s", core.ErrBundleNotFound, n)
		}
		state[n] = visiting
		for _, d := range b.Dependencies {
			if err := visit(d, append(chain, n)); err != nil {
				return err
			}
		}
		state[n] = done
		order = append(order, n)
		return nil
	}

	if err := visit(name, nil); err != nil {
		return nil, err
	}
	return order, nil
}
