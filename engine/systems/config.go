package systems

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-resources/engine/assets"
	"github.com/spaghettifunk/anima-resources/engine/bundles"
	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
	"github.com/spaghettifunk/anima-resources/engine/resources/loaders"
)

// DefaultConfigName is looked up in the working directory by the CLI.
const DefaultConfigName = "resources.toml"

type LogConfig struct {
	/** @brief debug, info, warn, error or fatal. Empty keeps the current level. */
	Level string `toml:"level"`
}

/** @brief The configuration for the resource system */
type Config struct {
	/** @brief Which stores a load consults. */
	LoadMode resources.LoadMode `toml:"load_mode"`
	/** @brief Project root, the directory holding Assets/. */
	ProjectDir string `toml:"project_dir"`
	/** @brief Data directory holding Resources/, relative to the project. */
	DataDir string          `toml:"data_dir"`
	Log     LogConfig       `toml:"log"`
	Editor  assets.Config   `toml:"editor"`
	Bundles bundles.Config  `toml:"bundles"`
	Jobs    JobSystemConfig `toml:"jobs"`
}

func DefaultConfig() Config {
	return Config{
		LoadMode:   resources.DefaultLoadMode,
		ProjectDir: ".",
		DataDir:    "Assets",
		Log:        LogConfig{Level: "info"},
		Editor:     assets.Config{},
		Bundles:    bundles.DefaultConfig(),
		Jobs:       JobSystemConfig{Workers: 2, QueueSize: 64},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. A relative
// project_dir is taken from the file's directory.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return config, fmt.Errorf("%w: %s", core.ErrInvalidConfig, strict.String())
		}
		return config, fmt.Errorf("%w: %s: %w", core.ErrInvalidConfig, path, err)
	}

	if !filepath.IsAbs(config.ProjectDir) {
		config.ProjectDir = filepath.Join(filepath.Dir(path), config.ProjectDir)
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	if !c.LoadMode.Valid() {
		return fmt.Errorf("%w: load_mode %d", core.ErrInvalidConfig, int(c.LoadMode))
	}
	if c.ProjectDir == "" {
		return fmt.Errorf("%w: project_dir is empty", core.ErrInvalidConfig)
	}
	if c.Log.Level != "" && !core.ValidLogLevel(c.Log.Level) {
		return fmt.Errorf("%w: log level %q", core.ErrInvalidConfig, c.Log.Level)
	}
	if c.Bundles.KeepOpen < 0 {
		return fmt.Errorf("%w: bundles.keep_open must not be negative", core.ErrInvalidConfig)
	}
	if c.Jobs.Workers < 0 || c.Jobs.QueueSize < 0 {
		return fmt.Errorf("%w: jobs.workers and jobs.queue_size must not be negative", core.ErrInvalidConfig)
	}
	return nil
}

func (c Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// DataPath is the absolute or project-joined data directory.
func (c Config) DataPath() string {
	return c.resolve(c.DataDir)
}

// BundleDir is where the manifest and bundle files live. Empty disables the
// bundle store.
func (c Config) BundleDir() string {
	return c.resolve(c.Bundles.Dir)
}

// NewFromConfig composes the stores the configuration asks for. A missing
// bundle manifest disables the bundle store with a warning.
func NewFromConfig(config Config) (*ResourceSystem, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Log.Level != "" {
		if err := core.SetLogLevel(config.Log.Level); err != nil {
			return nil, err
		}
	}

	registry := loaders.DefaultRegistry()
	events := core.NewEventSystem()
	var stores Stores
	opts := []Option{WithEventSystem(events)}

	if config.Editor.Enabled {
		db, err := assets.NewAssetDatabase(config.ProjectDir, config.Editor.Watch, registry)
		if err != nil {
			return nil, fmt.Errorf("editor asset database: %w", err)
		}
		db.SetEventSystem(events)
		stores.Editor = db
	}

	if dir := config.BundleDir(); dir != "" {
		bcfg := config.Bundles
		bcfg.Dir = dir
		mgr, err := bundles.NewManager(bcfg, registry)
		switch {
		case err == nil:
			stores.Bundles = mgr
		case errors.Is(err, fs.ErrNotExist):
			core.LogWarn("No bundle manifest in '%s', bundle store disabled.", dir)
		default:
			closeStores(stores)
			return nil, fmt.Errorf("bundle store: %w", err)
		}
	}

	stores.Resources = assets.NewResourceFolder(resources.ResourcesDirectory(config.DataPath()), registry)

	if config.Jobs.Workers > 0 {
		js, err := NewJobSystem(config.Jobs.Workers, config.Jobs.QueueSize)
		if err != nil {
			closeStores(stores)
			return nil, err
		}
		opts = append(opts, WithJobSystem(js))
	}

	return NewResourceSystem(config.LoadMode, stores, opts...), nil
}

func closeStores(stores Stores) {
	if db, ok := stores.Editor.(*assets.AssetDatabase); ok {
		_ = db.Close()
	}
	if mgr, ok := stores.Bundles.(*bundles.Manager); ok {
		_ = mgr.Close()
	}
}
