package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
	"github.com/spaghettifunk/anima-resources/engine/resources/loaders"
)

// EditorStoreName is stamped on resources served by the asset database.
const EditorStoreName = "editor"

/** @brief The configuration for the editor asset database */
type Config struct {
	/** @brief Compose the asset database at all. Off in shipped builds. */
	Enabled bool `toml:"enabled"`
	/** @brief Keep the index in sync with the file system. */
	Watch bool `toml:"watch"`
}

type AssetInfo struct {
	Path    string
	Type    resources.ResourceType
	Size    int64
	ModTime time.Time
}

// AssetDatabase gives development builds direct access to the project's
// Assets/ tree. Only indexed files can be loaded; the index is built on start
// and kept current by a file system watcher.
type AssetDatabase struct {
	projectDir string
	registry   *loaders.Registry

	assets map[string]AssetInfo
	mutex  sync.RWMutex

	events *core.EventSystem

	fsnotify  *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAssetDatabase indexes projectDir/Assets. With watch set, file changes
// are picked up until Close.
func NewAssetDatabase(projectDir string, watch bool, registry *loaders.Registry) (*AssetDatabase, error) {
	if registry == nil {
		registry = loaders.DefaultRegistry()
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}

	db := &AssetDatabase{
		projectDir: abs,
		registry:   registry,
		assets:     make(map[string]AssetInfo),
		done:       make(chan struct{}),
	}

	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		db.fsnotify = w
		db.wg.Add(1)
		go db.start()
	}

	if err := db.Refresh(); err != nil {
		db.Close()
		return nil, err
	}

	core.LogInfo("Asset database initialized with %d assets from '%s'.", db.Len(), db.assetsDir())
	return db, nil
}

// SetEventSystem makes the watcher fire asset created, changed and removed
// events on es.
func (db *AssetDatabase) SetEventSystem(es *core.EventSystem) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.events = es
}

func (db *AssetDatabase) fire(code core.EventCode, assetPath string) {
	db.mutex.RLock()
	es := db.events
	db.mutex.RUnlock()
	es.Fire(code, db, core.EventContext{Path: assetPath, Store: EditorStoreName})
}

func (db *AssetDatabase) assetsDir() string {
	return filepath.Join(db.projectDir, strings.TrimSuffix(resources.AssetsDirectory, "/"))
}

// Refresh rebuilds the index from disk.
func (db *AssetDatabase) Refresh() error {
	db.mutex.Lock()
	db.assets = make(map[string]AssetInfo)
	db.mutex.Unlock()

	if _, err := os.Stat(db.assetsDir()); err != nil {
		return err
	}
	return db.watchRecursive(db.assetsDir(), false)
}

// watchRecursive indexes every file under root and, when watching, adds all
// directories to the watch list. notify fires created events for the files.
func (db *AssetDatabase) watchRecursive(root string, notify bool) error {
	return filepath.WalkDir(root, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if db.fsnotify == nil {
				return nil
			}
			return db.fsnotify.Add(walkPath)
		}
		db.handleFileEvent(walkPath, notify)
		return nil
	})
}

func (db *AssetDatabase) start() {
	defer db.wg.Done()
	for {
		select {
		case e, ok := <-db.fsnotify.Events:
			if !ok {
				return
			}
			db.handleEvent(e)

		case err, ok := <-db.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogWith("asset watcher failed", "err", err)

		case <-db.done:
			return
		}
	}
}

func (db *AssetDatabase) handleEvent(e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := db.watchRecursive(e.Name, true); err != nil {
				core.LogWith("failed to watch new directory", "dir", e.Name, "err", err)
			}
			return
		}
	}
	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		db.handleFileEvent(e.Name, true)
	}
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		// A moved directory reports its own move under the new name once the
		// Create above re-added it, and fsnotify drops that watch. Rescan to
		// pick up files written while it was gone.
		if s, err := os.Lstat(e.Name); err == nil {
			if s.IsDir() {
				if err := db.watchRecursive(e.Name, true); err != nil {
					core.LogWith("failed to rewatch moved directory", "dir", e.Name, "err", err)
				}
			}
			return
		}
		// A removed or renamed directory can't be stat'ed any more, drop every
		// entry below the name as well.
		db.removeAsset(e.Name)
	}
}

// relative maps an absolute file name to its "Assets/..." path.
func (db *AssetDatabase) relative(name string) (string, bool) {
	rel, err := filepath.Rel(db.projectDir, name)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Handle the creation or modification of a file
func (db *AssetDatabase) handleFileEvent(name string, notify bool) {
	if strings.HasSuffix(name, ".meta") || strings.HasPrefix(filepath.Base(name), ".") {
		return
	}
	rel, ok := db.relative(name)
	if !ok {
		return
	}
	st, err := os.Stat(name)
	if err != nil || !st.Mode().IsRegular() {
		return
	}

	info := AssetInfo{
		Path:    rel,
		Type:    loaders.TypeForPath(rel),
		Size:    st.Size(),
		ModTime: st.ModTime(),
	}
	db.mutex.Lock()
	prev, existed := db.assets[rel]
	db.assets[rel] = info
	db.mutex.Unlock()

	switch {
	case !notify:
	case !existed:
		db.fire(core.EventCodeAssetCreated, rel)
	case prev.Size != info.Size || !prev.ModTime.Equal(info.ModTime):
		db.fire(core.EventCodeAssetChanged, rel)
	}
}

// Remove the asset, or everything below a directory, from the index
func (db *AssetDatabase) removeAsset(name string) {
	rel, ok := db.relative(name)
	if !ok {
		return
	}

	var removed []string
	db.mutex.Lock()
	if _, ok := db.assets[rel]; ok {
		delete(db.assets, rel)
		removed = append(removed, rel)
	}
	prefix := rel + "/"
	for p := range db.assets {
		if strings.HasPrefix(p, prefix) {
			delete(db.assets, p)
			removed = append(removed, p)
		}
	}
	db.mutex.Unlock()

	slices.Sort(removed)
	for _, p := range removed {
		db.fire(core.EventCodeAssetRemoved, p)
	}
}

func (db *AssetDatabase) Lookup(assetPath string) (AssetInfo, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	info, ok := db.assets[resources.ToSlash(assetPath)]
	return info, ok
}

func (db *AssetDatabase) Len() int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return len(db.assets)
}

// Assets lists every indexed path in sorted order.
func (db *AssetDatabase) Assets() []string {
	db.mutex.RLock()
	paths := make([]string, 0, len(db.assets))
	for p := range db.assets {
		paths = append(paths, p)
	}
	db.mutex.RUnlock()
	slices.Sort(paths)
	return paths
}

// LoadAssetAtPath loads a project-relative path ("Assets/Art/Hero.png").
// Files whose extension does not match resourceType are not found, text and
// binary accept any file.
func (db *AssetDatabase) LoadAssetAtPath(assetPath string, resourceType resources.ResourceType) (*resources.Resource, error) {
	assetPath = path.Clean(resources.ToSlash(assetPath))
	if !strings.HasPrefix(assetPath, resources.AssetsDirectory) {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidPath, assetPath)
	}
	if _, ok := db.Lookup(assetPath); !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrAssetNotFound, assetPath)
	}
	if !loaders.Accepts(resourceType, assetPath) {
		return nil, fmt.Errorf("%w: %s is not a %s", core.ErrAssetNotFound, assetPath, resourceType)
	}

	full := filepath.Join(db.projectDir, filepath.FromSlash(assetPath))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}

	siblings := func(name string) ([]byte, error) {
		p := path.Join(path.Dir(assetPath), resources.ToSlash(name))
		if !strings.HasPrefix(p, resources.AssetsDirectory) {
			return nil, fmt.Errorf("%w: %s", core.ErrInvalidPath, p)
		}
		return os.ReadFile(filepath.Join(db.projectDir, filepath.FromSlash(p)))
	}
	decoded, err := db.registry.Decode(resourceType, assetPath, data, siblings)
	if err != nil {
		return nil, err
	}
	return resources.NewResource(resources.BaseName(assetPath), full, resourceType, EditorStoreName, len(data), decoded), nil
}

// Close stops the watcher. The index stays readable.
func (db *AssetDatabase) Close() error {
	var err error
	db.closeOnce.Do(func() {
		close(db.done)
		if db.fsnotify != nil {
			err = db.fsnotify.Close()
		}
		db.wg.Wait()
	})
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}
