package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-resources/engine/core"
	"github.com/spaghettifunk/anima-resources/engine/systems"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the editor asset database running until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := root.config(cmd)
			if err != nil {
				return err
			}
			config.Editor.Enabled = true
			config.Editor.Watch = true
			config.Log.Level = "debug"

			rs, err := systems.NewFromConfig(config)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printEvent := func(code core.EventCode, _ interface{}, _ interface{}, ctx core.EventContext) bool {
				verb := map[core.EventCode]string{
					core.EventCodeAssetCreated: "created",
					core.EventCodeAssetChanged: "changed",
					core.EventCodeAssetRemoved: "removed",
				}[code]
				fmt.Fprintf(out, "%s\t%s\n", verb, ctx.Path)
				return false
			}
			for _, code := range []core.EventCode{core.EventCodeAssetCreated, core.EventCodeAssetChanged, core.EventCodeAssetRemoved} {
				rs.Events().Register(code, cmd, printEvent)
			}

			// signal channel to capture system calls
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
			defer signal.Stop(sigCh)

			core.LogInfo("Watching '%s', press Ctrl+C to stop.", config.ProjectDir)
			<-sigCh
			return rs.Shutdown()
		},
	}
}
