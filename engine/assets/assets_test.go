package assets

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "Assets/Art/Hero.txt", "hero")
	writeFile(t, dir, "Assets/Art/Hero.txt.meta", "guid: 1")
	writeFile(t, dir, "Assets/Materials/brick.amt", "name = brick\nshader = Shader.Builtin.Material\n")
	return dir
}

func TestAssetDatabaseIndex(t *testing.T) {
	db, err := NewAssetDatabase(newProject(t), false, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, []string{"Assets/Art/Hero.txt", "Assets/Materials/brick.amt"}, db.Assets())

	info, ok := db.Lookup("Assets/Materials/brick.amt")
	require.True(t, ok)
	assert.Equal(t, resources.ResourceTypeMaterial, info.Type)
	assert.Equal(t, int64(len("name = brick\nshader = Shader.Builtin.Material\n")), info.Size)
}

func TestAssetDatabaseMissingAssetsDir(t *testing.T) {
	_, err := NewAssetDatabase(t.TempDir(), false, nil)
	assert.Error(t, err)
}

func TestLoadAssetAtPath(t *testing.T) {
	db, err := NewAssetDatabase(newProject(t), false, nil)
	require.NoError(t, err)
	defer db.Close()

	res, err := db.LoadAssetAtPath("Assets/Art/Hero.txt", resources.ResourceTypeText)
	require.NoError(t, err)
	assert.Equal(t, "hero", res.Data)
	assert.Equal(t, EditorStoreName, res.Origin)
	assert.Equal(t, "Hero", res.Name)

	mat, err := db.LoadAssetAtPath("Assets\\Materials\\brick.amt", resources.ResourceTypeMaterial)
	require.NoError(t, err)
	assert.Equal(t, "brick", mat.Data.(*resources.MaterialConfig).Name)
}

func TestLoadAssetAtPathMisses(t *testing.T) {
	db, err := NewAssetDatabase(newProject(t), false, nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.LoadAssetAtPath("Assets/Art/Villain.txt", resources.ResourceTypeText)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)

	_, err = db.LoadAssetAtPath("Assets/Art/Hero.txt", resources.ResourceTypeImage)
	assert.ErrorIs(t, err, core.ErrAssetNotFound)

	_, err = db.LoadAssetAtPath("Assets/../secret.txt", resources.ResourceTypeText)
	assert.ErrorIs(t, err, core.ErrInvalidPath)

	_, err = db.LoadAssetAtPath("Library/cache.txt", resources.ResourceTypeText)
	assert.ErrorIs(t, err, core.ErrInvalidPath)
}

func TestAssetDatabaseRefresh(t *testing.T) {
	dir := newProject(t)
	db, err := NewAssetDatabase(dir, false, nil)
	require.NoError(t, err)
	defer db.Close()

	writeFile(t, dir, "Assets/Art/Villain.txt", "villain")
	_, ok := db.Lookup("Assets/Art/Villain.txt")
	assert.False(t, ok)

	require.NoError(t, db.Refresh())
	_, ok = db.Lookup("Assets/Art/Villain.txt")
	assert.True(t, ok)
}

func TestAssetDatabaseWatch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := newProject(t)
	db, err := NewAssetDatabase(dir, true, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[core.EventCode][]string{}
	es := core.NewEventSystem()
	record := func(code core.EventCode, _ interface{}, _ interface{}, ctx core.EventContext) bool {
		mu.Lock()
		defer mu.Unlock()
		seen[code] = append(seen[code], ctx.Path)
		return false
	}
	es.Register(core.EventCodeAssetCreated, t, record)
	es.Register(core.EventCodeAssetRemoved, t, record)
	db.SetEventSystem(es)
	saw := func(code core.EventCode, p string) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			return slices.Contains(seen[code], p)
		}
	}

	writeFile(t, dir, "Assets/Art/Villain.txt", "villain")
	require.Eventually(t, func() bool {
		_, ok := db.Lookup("Assets/Art/Villain.txt")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	writeFile(t, dir, "Assets/Audio/theme.txt", "la la")
	require.Eventually(t, func() bool {
		_, ok := db.Lookup("Assets/Audio/theme.txt")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "Assets", "Art", "Hero.txt")))
	require.Eventually(t, func() bool {
		_, ok := db.Lookup("Assets/Art/Hero.txt")
		return !ok
	}, 5*time.Second, 10*time.Millisecond)

	assert.Eventually(t, saw(core.EventCodeAssetCreated, "Assets/Art/Villain.txt"), 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, saw(core.EventCodeAssetRemoved, "Assets/Art/Hero.txt"), 5*time.Second, 10*time.Millisecond)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
}

func TestAssetDatabaseWatchEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := newProject(t)
	writeFile(t, dir, "Assets/Art/a.txt", "a")
	writeFile(t, dir, "Assets/Art/b.txt", "b")
	db, err := NewAssetDatabase(dir, true, nil)
	require.NoError(t, err)
	defer db.Close()

	var mu sync.Mutex
	seen := map[core.EventCode][]string{}
	indexed := map[string]bool{}
	es := core.NewEventSystem()
	record := func(code core.EventCode, _ interface{}, _ interface{}, ctx core.EventContext) bool {
		// the index must be readable from inside a listener
		_, ok := db.Lookup(ctx.Path)
		mu.Lock()
		defer mu.Unlock()
		seen[code] = append(seen[code], ctx.Path)
		indexed[ctx.Path] = ok
		return false
	}
	for _, code := range []core.EventCode{core.EventCodeAssetCreated, core.EventCodeAssetChanged, core.EventCodeAssetRemoved} {
		require.True(t, es.Register(code, t, record))
	}
	db.SetEventSystem(es)

	saw := func(code core.EventCode, p string) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			return slices.Contains(seen[code], p)
		}
	}
	isIndexed := func(p string) func() bool {
		return func() bool {
			_, ok := db.Lookup(p)
			return ok
		}
	}

	t.Run("overwrite fires changed", func(t *testing.T) {
		writeFile(t, dir, "Assets/Materials/brick.amt", "name = brick\nshader = Shader.Builtin.Other\n")
		require.Eventually(t, saw(core.EventCodeAssetChanged, "Assets/Materials/brick.amt"), 5*time.Second, 10*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.True(t, indexed["Assets/Materials/brick.amt"])
	})

	t.Run("renamed directory stays indexed", func(t *testing.T) {
		require.NoError(t, os.Rename(filepath.Join(dir, "Assets", "Art"), filepath.Join(dir, "Assets", "Gfx")))

		for _, name := range []string{"Hero.txt", "a.txt", "b.txt"} {
			require.Eventually(t, saw(core.EventCodeAssetRemoved, "Assets/Art/"+name), 5*time.Second, 10*time.Millisecond)
			require.Eventually(t, isIndexed("Assets/Gfx/"+name), 5*time.Second, 10*time.Millisecond)
		}

		writeFile(t, dir, "Assets/Gfx/c.txt", "c")
		require.Eventually(t, isIndexed("Assets/Gfx/c.txt"), 5*time.Second, 10*time.Millisecond)

		assert.Equal(t, []string{
			"Assets/Gfx/Hero.txt",
			"Assets/Gfx/a.txt",
			"Assets/Gfx/b.txt",
			"Assets/Gfx/c.txt",
			"Assets/Materials/brick.amt",
		}, db.Assets())

		mu.Lock()
		defer mu.Unlock()
		var art []string
		for _, p := range seen[core.EventCodeAssetRemoved] {
			if strings.HasPrefix(p, "Assets/Art/") {
				art = append(art, p)
			}
		}
		assert.Equal(t, []string{"Assets/Art/Hero.txt", "Assets/Art/a.txt", "Assets/Art/b.txt"}, art)
		for _, p := range seen[core.EventCodeAssetRemoved] {
			assert.False(t, strings.HasPrefix(p, "Assets/Gfx/"), p)
		}
	})

	t.Run("removed directory fires one event per asset", func(t *testing.T) {
		require.NoError(t, os.RemoveAll(filepath.Join(dir, "Assets", "Gfx")))
		for _, name := range []string{"Hero.txt", "a.txt", "b.txt", "c.txt"} {
			require.Eventually(t, saw(core.EventCodeAssetRemoved, "Assets/Gfx/"+name), 5*time.Second, 10*time.Millisecond)
		}
		assert.Equal(t, []string{"Assets/Materials/brick.amt"}, db.Assets())

		mu.Lock()
		defer mu.Unlock()
		counts := map[string]int{}
		for _, p := range seen[core.EventCodeAssetRemoved] {
			counts[p]++
		}
		for _, name := range []string{"Hero.txt", "a.txt", "b.txt", "c.txt"} {
			assert.Equal(t, 1, counts["Assets/Gfx/"+name], name)
		}
	})
}
