package systems

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

// EditorStore is the development-only asset database.
type EditorStore interface {
	LoadAssetAtPath(assetPath string, resourceType resources.ResourceType) (*resources.Resource, error)
}

// BundleStore serves assets packed into bundles and owns their lifetime.
type BundleStore interface {
	LoadAsset(assetPath string, resourceType resources.ResourceType, allowUnload bool) (*resources.Resource, error)
	UnloadAsset(assetPath string) error
}

// RuntimeStore loads by resource-root-relative key without extension.
type RuntimeStore interface {
	Load(key string, resourceType resources.ResourceType) (*resources.Resource, error)
}

// Stores are the backing stores of a ResourceSystem. A nil store is simply
// never consulted, this is how shipped builds leave out the editor.
type Stores struct {
	Editor    EditorStore
	Bundles   BundleStore
	Resources RuntimeStore
}

type loadOptions struct {
	allowStoreEviction bool
}

type LoadOption func(*loadOptions)

// WithoutStoreEviction asks the bundle store to keep the bundle open until
// the asset is unloaded.
func WithoutStoreEviction() LoadOption {
	return func(o *loadOptions) {
		o.allowStoreEviction = false
	}
}

type Option func(*ResourceSystem)

// WithEventSystem shares es with the caller, Events returns it.
func WithEventSystem(es *core.EventSystem) Option {
	return func(rs *ResourceSystem) {
		rs.events = es
	}
}

// WithJobSystem enables LoadAsync.
func WithJobSystem(js *JobSystem) Option {
	return func(rs *ResourceSystem) {
		rs.jobs = js
	}
}

// ResourceSystem picks the backing stores a load goes to based on its
// LoadMode. Stores are tried editor first, then bundles, then the resource
// folder, and the first one returning a resource wins.
type ResourceSystem struct {
	mode    atomic.Int32
	stores  Stores
	jobs    *JobSystem
	events  *core.EventSystem
	metrics *ResourceMetrics
}

func NewResourceSystem(mode resources.LoadMode, stores Stores, opts ...Option) *ResourceSystem {
	rs := &ResourceSystem{
		stores:  stores,
		metrics: NewResourceMetrics(),
	}
	if !mode.Valid() {
		core.LogWarn("Invalid load mode %d, falling back to '%s'.", int(mode), resources.DefaultLoadMode)
		mode = resources.DefaultLoadMode
	}
	rs.mode.Store(int32(mode))
	for _, o := range opts {
		o(rs)
	}

	core.LogInfo("Resource system initialized with load mode '%s' (editor=%t bundles=%t resources=%t).",
		mode, stores.Editor != nil, stores.Bundles != nil, stores.Resources != nil)
	return rs
}

func (rs *ResourceSystem) LoadMode() resources.LoadMode {
	return resources.LoadMode(rs.mode.Load())
}

// SetLoadMode switches the policy for every following call. Invalid modes are
// ignored.
func (rs *ResourceSystem) SetLoadMode(mode resources.LoadMode) {
	if !mode.Valid() {
		core.LogError("SetLoadMode - invalid load mode %d, keeping '%s'.", int(mode), rs.LoadMode())
		return
	}
	rs.mode.Store(int32(mode))
}

func (rs *ResourceSystem) Metrics() *ResourceMetrics {
	return rs.metrics
}

// Events carries asset change notifications, nil unless composed with one.
func (rs *ResourceSystem) Events() *core.EventSystem {
	return rs.events
}

// Load returns the asset at the project-relative assetPath decoded as
// resourceType. Store failures are logged and treated like absent assets.
func (rs *ResourceSystem) Load(assetPath string, resourceType resources.ResourceType, opts ...LoadOption) (*resources.Resource, bool) {
	o := loadOptions{allowStoreEviction: true}
	for _, opt := range opts {
		opt(&o)
	}

	rs.metrics.load()
	if assetPath == "" {
		rs.metrics.miss()
		return nil, false
	}
	mode := rs.LoadMode()

	if mode.UsesEditor() && rs.stores.Editor != nil {
		res := rs.try(StoreEditor, assetPath, func() (*resources.Resource, error) {
			return rs.stores.Editor.LoadAssetAtPath(assetPath, resourceType)
		})
		if res != nil {
			return res, true
		}
	} else {
		rs.metrics.skip(StoreEditor)
	}

	if mode.UsesBundles() && rs.stores.Bundles != nil {
		res := rs.try(StoreBundle, assetPath, func() (*resources.Resource, error) {
			return rs.stores.Bundles.LoadAsset(assetPath, resourceType, o.allowStoreEviction)
		})
		if res != nil {
			return res, true
		}
	} else {
		rs.metrics.skip(StoreBundle)
	}

	if mode.UsesResources() && rs.stores.Resources != nil {
		key := resources.ResourceKey(assetPath)
		res := rs.try(StoreResources, key, func() (*resources.Resource, error) {
			return rs.stores.Resources.Load(key, resourceType)
		})
		if res != nil {
			return res, true
		}
	} else {
		rs.metrics.skip(StoreResources)
	}

	rs.metrics.miss()
	return nil, false
}

func (rs *ResourceSystem) try(store Store, key string, load func() (*resources.Resource, error)) *resources.Resource {
	res, err := load()
	if err != nil || res == nil {
		rs.metrics.fail(store)
		if err != nil {
			core.LogDebugWith("store miss", "store", store, "path", key, "reason", err)
		}
		return nil
	}
	rs.metrics.hit(store)
	return res
}

// LoadAssetAtPath goes straight to the editor asset database regardless of
// the load mode. Not found when no editor store is composed.
func (rs *ResourceSystem) LoadAssetAtPath(assetPath string, resourceType resources.ResourceType) (*resources.Resource, bool) {
	if rs.stores.Editor == nil || assetPath == "" {
		return nil, false
	}
	res, err := rs.stores.Editor.LoadAssetAtPath(assetPath, resourceType)
	if err != nil || res == nil {
		if err != nil {
			core.LogDebugWith("store miss", "store", StoreEditor, "path", assetPath, "reason", err)
		}
		return nil, false
	}
	return res, true
}

// Unload releases an asset loaded from bundles. Assets served by the editor
// or the resource folder are owned by those stores, for them this is a no-op.
func (rs *ResourceSystem) Unload(assetPath string) {
	if !rs.LoadMode().UsesBundles() || rs.stores.Bundles == nil {
		return
	}
	if err := rs.stores.Bundles.UnloadAsset(assetPath); err != nil {
		core.LogWith("failed to unload asset", "path", assetPath, "err", err)
	}
}

// LoadAsync runs Load on the job system and hands the result to callback from
// a worker goroutine.
func (rs *ResourceSystem) LoadAsync(assetPath string, resourceType resources.ResourceType, callback func(*resources.Resource, bool), opts ...LoadOption) error {
	if rs.jobs == nil {
		return core.ErrNoJobSystem
	}
	return rs.jobs.Submit(JobTask{
		Run: func() error {
			res, ok := rs.Load(assetPath, resourceType, opts...)
			if callback != nil {
				callback(res, ok)
			}
			return nil
		},
	})
}

func (rs *ResourceSystem) LoadTextFile(absPath string) (string, bool) {
	return LoadTextFile(absPath)
}

func (rs *ResourceSystem) LoadByteFile(absPath string) ([]byte, bool) {
	return LoadByteFile(absPath)
}

// Shutdown stops the job system and closes every store that can be closed.
func (rs *ResourceSystem) Shutdown() error {
	var errs []error
	if rs.jobs != nil {
		errs = append(errs, rs.jobs.Shutdown())
	}
	for _, s := range []interface{}{rs.stores.Editor, rs.stores.Bundles, rs.stores.Resources} {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	rs.events.Shutdown()
	core.LogInfo("Resource system shut down.")
	return errors.Join(errs...)
}

// LoadAs loads an asset and asserts its data to T, "LoadAs[string]" for text,
// "LoadAs[*resources.ImageResourceData]" for images.
func LoadAs[T any](rs *ResourceSystem, assetPath string, resourceType resources.ResourceType, opts ...LoadOption) (T, bool) {
	var zero T
	res, ok := rs.Load(assetPath, resourceType, opts...)
	if !ok {
		return zero, false
	}
	v, ok := res.Data.(T)
	if !ok {
		return zero, false
	}
	return v, true
}
