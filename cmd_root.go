package main

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/resources"
	"github.com/spaghettifunk/anima-resources/engine/systems"
)

type rootOptions struct {
	configPath string
	logLevel   string
	mode       string
	projectDir string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "anima-resources",
		Short:        "Load, pack and inspect game assets",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", systems.DefaultConfigName, "configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn, error or fatal")
	cmd.PersistentFlags().StringVarP(&opts.mode, "mode", "m", "", "load mode: editor, bundle, original or all")
	cmd.PersistentFlags().StringVarP(&opts.projectDir, "project", "p", "", "project directory holding Assets/")

	cmd.AddCommand(
		newLoadCmd(opts),
		newCatCmd(),
		newPackCmd(opts),
		newManifestCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

// config reads the configuration file and applies the command line overrides.
// Without an explicit --config a missing file falls back to the defaults.
func (o *rootOptions) config(cmd *cobra.Command) (systems.Config, error) {
	config, err := systems.LoadConfig(o.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return config, err
		}
		config = systems.DefaultConfig()
	}

	if o.mode != "" {
		mode, err := resources.ParseLoadMode(o.mode)
		if err != nil {
			return config, err
		}
		config.LoadMode = mode
	}
	if o.projectDir != "" {
		config.ProjectDir = o.projectDir
	}
	if o.logLevel != "" {
		config.Log.Level = o.logLevel
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	if config.Log.Level != "" {
		if err := core.SetLogLevel(config.Log.Level); err != nil {
			return config, err
		}
	}
	return config, nil
}
