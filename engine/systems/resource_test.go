package systems

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

type fakeStore struct {
	name string

	mu       sync.Mutex
	assets   map[string]string
	calls    []string
	unloads  []string
	noUnload []bool
	err      error
}

func newFakeStore(name string, assets ...string) *fakeStore {
	fs := &fakeStore{name: name, assets: map[string]string{}}
	for _, a := range assets {
		fs.assets[a] = name + ":" + a
	}
	return fs
}

func (fs *fakeStore) get(key string, t resources.ResourceType) (*resources.Resource, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.calls = append(fs.calls, key)
	if fs.err != nil {
		return nil, fs.err
	}
	v, ok := fs.assets[key]
	if !ok {
		return nil, nil
	}
	return resources.NewResource(resources.BaseName(key), key, t, fs.name, len(v), v), nil
}

func (fs *fakeStore) LoadAssetAtPath(p string, t resources.ResourceType) (*resources.Resource, error) {
	return fs.get(p, t)
}

func (fs *fakeStore) LoadAsset(p string, t resources.ResourceType, allowUnload bool) (*resources.Resource, error) {
	fs.mu.Lock()
	fs.noUnload = append(fs.noUnload, !allowUnload)
	fs.mu.Unlock()
	return fs.get(p, t)
}

func (fs *fakeStore) UnloadAsset(p string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.unloads = append(fs.unloads, p)
	return fs.err
}

func (fs *fakeStore) Load(key string, t resources.ResourceType) (*resources.Resource, error) {
	return fs.get(key, t)
}

func (fs *fakeStore) Calls() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.calls...)
}

type fixture struct {
	editor, bundle, folder *fakeStore
	rs                     *ResourceSystem
}

func newFixture(mode resources.LoadMode) *fixture {
	f := &fixture{
		editor: newFakeStore("editor", "Assets/Resources/Both.txt", "Assets/Art/EditorOnly.txt"),
		bundle: newFakeStore("bundle", "Assets/Resources/Both.txt", "Assets/Art/BundleOnly.txt"),
		folder: newFakeStore("resources", "Both", "Only"),
	}
	f.rs = NewResourceSystem(mode, Stores{Editor: f.editor, Bundles: f.bundle, Resources: f.folder})
	return f
}

func TestLoadPriorityAll(t *testing.T) {
	f := newFixture(resources.LoadModeAll)

	res, ok := f.rs.Load("Assets/Resources/Both.txt", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, "editor", res.Origin)
	assert.Empty(t, f.bundle.Calls())
	assert.Empty(t, f.folder.Calls())

	res, ok = f.rs.Load("Assets/Art/BundleOnly.txt", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, "bundle", res.Origin)

	res, ok = f.rs.Load("Assets/Resources/Only.txt", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, "resources", res.Origin)
	assert.Equal(t, []string{"Only"}, f.folder.Calls())
}

func TestLoadPriorityAllConsultsEveryStore(t *testing.T) {
	f := newFixture(resources.LoadModeAll)

	_, ok := f.rs.Load("Assets/Resources/Only.txt", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, []string{"Assets/Resources/Only.txt"}, f.editor.Calls())
	assert.Equal(t, []string{"Assets/Resources/Only.txt"}, f.bundle.Calls())
	assert.Equal(t, []string{"Only"}, f.folder.Calls())
}

func TestLoadModesSelectOneStore(t *testing.T) {
	tests := []struct {
		mode   resources.LoadMode
		path   string
		origin string
		found  bool
	}{
		{resources.LoadModeEditorAsset, "Assets/Resources/Both.txt", "editor", true},
		{resources.LoadModeEditorAsset, "Assets/Art/BundleOnly.txt", "", false},
		{resources.LoadModeAssetBundle, "Assets/Resources/Both.txt", "bundle", true},
		{resources.LoadModeAssetBundle, "Assets/Art/EditorOnly.txt", "", false},
		{resources.LoadModeOriginal, "Assets/Resources/Both.txt", "resources", true},
		{resources.LoadModeOriginal, "Assets/Art/BundleOnly.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String()+" "+tt.path, func(t *testing.T) {
			f := newFixture(tt.mode)
			res, ok := f.rs.Load(tt.path, resources.ResourceTypeText)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.origin, res.Origin)
			} else {
				assert.Nil(t, res)
			}

			consulted := 0
			for _, s := range []*fakeStore{f.editor, f.bundle, f.folder} {
				if len(s.Calls()) > 0 {
					consulted++
				}
			}
			assert.Equal(t, 1, consulted)
		})
	}
}

func TestLoadResourceKey(t *testing.T) {
	f := newFixture(resources.LoadModeOriginal)
	f.folder.assets["Foo/Bar"] = "bar"

	res, ok := f.rs.Load("Assets/Resources/Foo/Bar.png", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, "bar", res.Data)
	assert.Equal(t, []string{"Foo/Bar"}, f.folder.Calls())
}

func TestLoadEmptyPath(t *testing.T) {
	f := newFixture(resources.LoadModeAll)
	res, ok := f.rs.Load("", resources.ResourceTypeText)
	assert.False(t, ok)
	assert.Nil(t, res)
	assert.Empty(t, f.editor.Calls())
	assert.Equal(t, uint64(1), f.rs.Metrics().Misses())
}

func TestStoreErrorsAreMisses(t *testing.T) {
	f := newFixture(resources.LoadModeAll)
	f.editor.err = errors.New("disk on fire")

	res, ok := f.rs.Load("Assets/Resources/Both.txt", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, "bundle", res.Origin)
	assert.Equal(t, uint64(1), f.rs.Metrics().Failed(StoreEditor))
	assert.Equal(t, uint64(1), f.rs.Metrics().Hits(StoreBundle))
}

func TestStoreEvictionOption(t *testing.T) {
	f := newFixture(resources.LoadModeAssetBundle)

	f.rs.Load("Assets/Art/BundleOnly.txt", resources.ResourceTypeText)
	f.rs.Load("Assets/Art/BundleOnly.txt", resources.ResourceTypeText, WithoutStoreEviction())
	assert.Equal(t, []bool{false, true}, f.bundle.noUnload)
}

func TestUnload(t *testing.T) {
	for _, mode := range []resources.LoadMode{resources.LoadModeAssetBundle, resources.LoadModeAll} {
		f := newFixture(mode)
		f.rs.Unload("Assets/Art/BundleOnly.txt")
		assert.Equal(t, []string{"Assets/Art/BundleOnly.txt"}, f.bundle.unloads, mode.String())
	}

	for _, mode := range []resources.LoadMode{resources.LoadModeEditorAsset, resources.LoadModeOriginal} {
		f := newFixture(mode)
		before, ok := f.rs.Load("Assets/Resources/Both.txt", resources.ResourceTypeText)
		require.True(t, ok)

		f.rs.Unload("Assets/Resources/Both.txt")
		assert.Empty(t, f.bundle.unloads, mode.String())

		after, ok := f.rs.Load("Assets/Resources/Both.txt", resources.ResourceTypeText)
		require.True(t, ok)
		assert.Equal(t, before.Data, after.Data)
	}
}

func TestUnloadErrorIsSwallowed(t *testing.T) {
	f := newFixture(resources.LoadModeAssetBundle)
	f.bundle.err = errors.New("boom")
	assert.NotPanics(t, func() { f.rs.Unload("Assets/Art/BundleOnly.txt") })
}

func TestMissingStoresAreSkipped(t *testing.T) {
	folder := newFakeStore("resources", "Only")
	rs := NewResourceSystem(resources.LoadModeAll, Stores{Resources: folder})

	res, ok := rs.Load("Assets/Resources/Only.txt", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, "resources", res.Origin)

	_, ok = rs.LoadAssetAtPath("Assets/Resources/Only.txt", resources.ResourceTypeText)
	assert.False(t, ok)
	assert.NotPanics(t, func() { rs.Unload("Assets/Resources/Only.txt") })

	snap := rs.Metrics().Snapshot()
	assert.Equal(t, uint64(1), snap.Stores["editor"].Skipped)
	assert.Equal(t, uint64(1), snap.Stores["bundle"].Skipped)
	assert.Equal(t, uint64(1), snap.Stores["resources"].Hits)
}

func TestLoadAssetAtPathIgnoresMode(t *testing.T) {
	f := newFixture(resources.LoadModeOriginal)
	res, ok := f.rs.LoadAssetAtPath("Assets/Art/EditorOnly.txt", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, "editor", res.Origin)

	_, ok = f.rs.LoadAssetAtPath("Assets/Art/Nope.txt", resources.ResourceTypeText)
	assert.False(t, ok)
}

func TestSetLoadMode(t *testing.T) {
	f := newFixture(resources.LoadModeAll)
	assert.Equal(t, resources.LoadModeAll, f.rs.LoadMode())

	f.rs.SetLoadMode(resources.LoadModeOriginal)
	assert.Equal(t, resources.LoadModeOriginal, f.rs.LoadMode())

	f.rs.SetLoadMode(resources.LoadMode(42))
	assert.Equal(t, resources.LoadModeOriginal, f.rs.LoadMode())

	rs := NewResourceSystem(resources.LoadMode(-3), Stores{})
	assert.Equal(t, resources.DefaultLoadMode, rs.LoadMode())
}

func TestLoadAs(t *testing.T) {
	f := newFixture(resources.LoadModeAll)

	s, ok := LoadAs[string](f.rs, "Assets/Art/EditorOnly.txt", resources.ResourceTypeText)
	require.True(t, ok)
	assert.Equal(t, "editor:Assets/Art/EditorOnly.txt", s)

	_, ok = LoadAs[[]byte](f.rs, "Assets/Art/EditorOnly.txt", resources.ResourceTypeText)
	assert.False(t, ok)

	_, ok = LoadAs[string](f.rs, "Assets/Art/Nope.txt", resources.ResourceTypeText)
	assert.False(t, ok)
}

func TestLoadAsync(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	f := newFixture(resources.LoadModeAll)
	assert.ErrorIs(t, f.rs.LoadAsync("Assets/Art/EditorOnly.txt", resources.ResourceTypeText, nil), core.ErrNoJobSystem)

	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)
	rs := NewResourceSystem(resources.LoadModeAll, Stores{Editor: f.editor}, WithJobSystem(js))

	type result struct {
		res *resources.Resource
		ok  bool
	}
	done := make(chan result, 2)
	cb := func(res *resources.Resource, ok bool) { done <- result{res, ok} }
	require.NoError(t, rs.LoadAsync("Assets/Art/EditorOnly.txt", resources.ResourceTypeText, cb))
	require.NoError(t, rs.LoadAsync("Assets/Art/Nope.txt", resources.ResourceTypeText, cb))

	found := 0
	for i := 0; i < 2; i++ {
		select {
		case r := <-done:
			if r.ok {
				found++
				assert.Equal(t, "editor", r.res.Origin)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("async load did not complete")
		}
	}
	assert.Equal(t, 1, found)

	require.NoError(t, rs.Shutdown())
	assert.ErrorIs(t, rs.LoadAsync("Assets/Art/EditorOnly.txt", resources.ResourceTypeText, cb), ErrJobSystemShutdown)
}

type closingStore struct {
	*fakeStore
	closed bool
}

func (c *closingStore) Close() error {
	c.closed = true
	return nil
}

func TestShutdownClosesStores(t *testing.T) {
	editor := &closingStore{fakeStore: newFakeStore("editor")}
	bundle := &closingStore{fakeStore: newFakeStore("bundle")}
	rs := NewResourceSystem(resources.LoadModeAll, Stores{Editor: editor, Bundles: bundle, Resources: newFakeStore("resources")})

	require.NoError(t, rs.Shutdown())
	assert.True(t, editor.closed)
	assert.True(t, bundle.closed)
}
