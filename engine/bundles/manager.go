package bundles

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/spaghettifunk/anima-resources/engine/containers"
	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
	"github.com/spaghettifunk/anima-resources/engine/resources/loaders"
)

// StoreName is stamped on every resource served from bundles.
const StoreName = "bundle"

/** @brief The configuration for the bundle store */
type Config struct {
	/** @brief Directory holding the manifest and the bundle files. */
	Dir string `toml:"dir"`
	/** @brief Manifest file name inside Dir. */
	Manifest string `toml:"manifest"`
	/** @brief How many unpinned bundles stay open before the oldest is closed. */
	KeepOpen int `toml:"keep_open"`
	/** @brief Check bundle files against the manifest hash when opening them. */
	Verify bool `toml:"verify"`
}

func DefaultConfig() Config {
	return Config{
		Dir:      "Bundles",
		Manifest: DefaultManifestName,
		KeepOpen: 4,
		Verify:   true,
	}
}

type loadedAsset struct {
	resource *resources.Resource
	refs     int
	// pinned lists the bundles held open for this asset, nil when the load
	// allowed them to be unloaded.
	pinned []string
}

// Manager serves assets packed into bundles. Assets are reference counted;
// bundle files are opened on demand together with their dependencies.
// Manager is safe for concurrent use.
type Manager struct {
	config   Config
	manifest *Manifest
	registry *loaders.Registry

	mu        sync.Mutex
	open      map[string]*archive
	retired   *containers.RingQueue[string]
	assets    map[string]*loadedAsset
	preloaded map[string][]string
	closed    bool

	group singleflight.Group
}

// NewManager reads the manifest from config.Dir.
func NewManager(config Config, registry *loaders.Registry) (*Manager, error) {
	if config.Manifest == "" {
		config.Manifest = DefaultManifestName
	}
	m, err := LoadManifest(filepath.Join(config.Dir, config.Manifest))
	if err != nil {
		return nil, err
	}
	return NewManagerWithManifest(config, m, registry), nil
}

func NewManagerWithManifest(config Config, manifest *Manifest, registry *loaders.Registry) *Manager {
	if registry == nil {
		registry = loaders.DefaultRegistry()
	}
	keep := config.KeepOpen
	if keep < 0 {
		keep = 0
	}
	core.LogInfo("Bundle store initialized from '%s' with %d bundles.", config.Dir, len(manifest.Bundles))
	return &Manager{
		config:    config,
		manifest:  manifest,
		registry:  registry,
		open:      make(map[string]*archive),
		retired:   containers.NewRingQueue[string](keep),
		assets:    make(map[string]*loadedAsset),
		preloaded: make(map[string][]string),
	}
}

func (m *Manager) Manifest() *Manifest {
	return m.manifest
}

// LoadAsset returns the asset at assetPath decoded as resourceType. When
// allowUnload is true the bundle may be closed as soon as the asset has been
// extracted, otherwise it stays open until UnloadAsset drops the last
// reference.
func (m *Manager) LoadAsset(assetPath string, resourceType resources.ResourceType, allowUnload bool) (*resources.Resource, error) {
	info, entry, ok := m.manifest.BundleFor(assetPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not packed in any bundle", core.ErrAssetNotFound, assetPath)
	}
	key := assetKey(assetPath)

	if res, done, err := m.reuse(key, info.Name, resourceType, allowUnload); done {
		return res, err
	}

	order, err := m.manifest.Resolve(info.Name)
	if err != nil {
		return nil, err
	}
	archives, err := m.acquire(order)
	if err != nil {
		return nil, err
	}

	res, err := m.extract(archives, info.Name, entry, resourceType)
	if err != nil {
		m.release(order)
		return nil, err
	}

	m.mu.Lock()
	keepPins := !allowUnload
	if la, exists := m.assets[key]; exists {
		// a concurrent load of the same asset won, hand out its handle
		la.refs++
		if keepPins && la.pinned == nil {
			la.pinned = order
		} else {
			keepPins = false
		}
		m.mu.Unlock()
		_ = m.registry.Unload(res)
		res = la.resource
	} else {
		la := &loadedAsset{resource: res, refs: 1}
		if keepPins {
			la.pinned = order
		}
		m.assets[key] = la
		m.mu.Unlock()
	}

	if !keepPins {
		m.release(order)
	}
	return res, nil
}

// reuse hands out an already loaded asset. done is false when the caller has
// to load it.
func (m *Manager) reuse(key, bundle string, resourceType resources.ResourceType, allowUnload bool) (*resources.Resource, bool, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, true, core.ErrStoreClosed
	}
	la, ok := m.assets[key]
	if !ok {
		m.mu.Unlock()
		return nil, false, nil
	}
	if la.resource.Type != resourceType {
		m.mu.Unlock()
		return nil, true, fmt.Errorf("%w: %s is loaded as %s, not %s", core.ErrAssetNotFound, key, la.resource.Type, resourceType)
	}
	la.refs++
	needPins := !allowUnload && la.pinned == nil
	m.mu.Unlock()

	if needPins {
		order, err := m.manifest.Resolve(bundle)
		if err != nil {
			return la.resource, true, nil
		}
		if _, err := m.acquire(order); err != nil {
			core.LogWarn("Bundle '%s' could not be kept open: %s", bundle, err.Error())
			return la.resource, true, nil
		}
		m.mu.Lock()
		if la.pinned == nil && m.assets[key] == la {
			la.pinned = order
			order = nil
		}
		m.mu.Unlock()
		if order != nil {
			m.release(order)
		}
	}
	return la.resource, true, nil
}

func (m *Manager) extract(archives []*archive, bundle, entry string, resourceType resources.ResourceType) (*resources.Resource, error) {
	owner := archives[len(archives)-1]
	data, err := owner.read(entry)
	if err != nil {
		return nil, err
	}

	// siblings may live in the owning bundle or in one of its dependencies
	siblings := func(name string) ([]byte, error) {
		p := path.Join(path.Dir(entry), resources.ToSlash(name))
		for i := len(archives) - 1; i >= 0; i-- {
			if archives[i].has(p) {
				return archives[i].read(p)
			}
		}
		return nil, fmt.Errorf("%w: %s", core.ErrAssetNotFound, p)
	}

	decoded, err := m.registry.Decode(resourceType, entry, data, siblings)
	if err != nil {
		return nil, err
	}
	return resources.NewResource(resources.BaseName(entry), bundle+":"+entry, resourceType, StoreName, len(data), decoded), nil
}

// UnloadAsset drops one reference to assetPath. The decoded data is released
// and the bundles pinned for it are let go once no reference remains.
// Unknown paths are ignored.
func (m *Manager) UnloadAsset(assetPath string) error {
	key := assetKey(assetPath)

	m.mu.Lock()
	la, ok := m.assets[key]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	la.refs--
	if la.refs > 0 {
		m.mu.Unlock()
		return nil
	}
	delete(m.assets, key)
	pinned := la.pinned
	la.pinned = nil
	m.mu.Unlock()

	if pinned != nil {
		m.release(pinned)
	}
	return m.registry.Unload(la.resource)
}

// Preload opens the named bundles and their dependencies in parallel and
// keeps them open until Release is called with the same names.
func (m *Manager) Preload(ctx context.Context, names ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			order, err := m.manifest.Resolve(name)
			if err != nil {
				return err
			}
			if _, err := m.acquire(order); err != nil {
				return err
			}
			m.mu.Lock()
			prev := m.preloaded[name]
			m.preloaded[name] = order
			m.mu.Unlock()
			if prev != nil {
				m.release(prev)
			}
			return nil
		})
	}
	return g.Wait()
}

// Release lets go of bundles held by Preload.
func (m *Manager) Release(names ...string) {
	for _, name := range names {
		m.mu.Lock()
		order := m.preloaded[name]
		delete(m.preloaded, name)
		m.mu.Unlock()
		if order != nil {
			m.release(order)
		}
	}
}

// acquire pins every bundle in order, opening the ones that are closed.
func (m *Manager) acquire(order []string) ([]*archive, error) {
	archives := make([]*archive, 0, len(order))
	for i, name := range order {
		a, err := m.pin(name)
		if err != nil {
			m.release(order[:i])
			return nil, err
		}
		archives = append(archives, a)
	}
	return archives, nil
}

func (m *Manager) pin(name string) (*archive, error) {
	for {
		a, err := m.lookupOrOpen(name)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, core.ErrStoreClosed
		}
		if !a.closed {
			a.pins++
			m.mu.Unlock()
			return a, nil
		}
		// evicted between open and pin, try again
		m.mu.Unlock()
	}
}

func (m *Manager) lookupOrOpen(name string) (*archive, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, core.ErrStoreClosed
	}
	if a, ok := m.open[name]; ok {
		m.mu.Unlock()
		return a, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(name, func() (interface{}, error) {
		m.mu.Lock()
		if a, ok := m.open[name]; ok {
			m.mu.Unlock()
			return a, nil
		}
		m.mu.Unlock()

		info, ok := m.manifest.Bundle(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrBundleNotFound, name)
		}
		hash := ""
		if m.config.Verify {
			hash = info.Hash
		}
		a, err := openArchive(name, filepath.Join(m.config.Dir, filepath.FromSlash(info.File)), hash)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			_ = a.close()
			return nil, core.ErrStoreClosed
		}
		m.open[name] = a
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*archive), nil
}

// release unpins bundles. Bundles left without pins go to the keep-open ring,
// which closes its oldest member when it overflows.
func (m *Manager) release(order []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		a, ok := m.open[order[i]]
		if !ok {
			continue
		}
		a.pins--
		if a.pins > 0 || a.retired {
			continue
		}
		m.retire(a)
	}
}

// retire must be called with m.mu held.
func (m *Manager) retire(a *archive) {
	if m.closed {
		return
	}
	for m.retired.IsFull() {
		oldest, err := m.retired.Dequeue()
		if err != nil {
			break
		}
		if o, ok := m.open[oldest]; ok {
			o.retired = false
			if o.pins == 0 {
				core.LogDebugWith("keep-open ring full, closing bundle", "bundle", oldest, "kept", m.retired.Len())
				m.evict(o)
			}
		}
	}
	if err := m.retired.Enqueue(a.name); err != nil {
		// size zero ring, nothing is kept open
		m.evict(a)
		return
	}
	a.retired = true
}

// evict must be called with m.mu held.
func (m *Manager) evict(a *archive) {
	delete(m.open, a.name)
	if err := a.close(); err != nil {
		core.LogWith("failed to close bundle", "bundle", a.name, "err", err)
	}
}

// OpenBundles lists the bundles currently open, pinned or kept warm.
func (m *Manager) OpenBundles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.open))
	for n := range m.open {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// PinCount reports how many holders keep a bundle open, zero when closed.
func (m *Manager) PinCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.open[name]; ok {
		return a.pins
	}
	return 0
}

// KeptOpen is the number of released bundles held in the keep-open ring.
func (m *Manager) KeptOpen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retired.Len()
}

// LoadedAssets is the number of distinct assets with live references.
func (m *Manager) LoadedAssets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assets)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var firstErr error
	for _, a := range m.open {
		if err := a.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.open = make(map[string]*archive)
	m.assets = make(map[string]*loadedAsset)
	m.preloaded = make(map[string][]string)
	return firstErr
}
