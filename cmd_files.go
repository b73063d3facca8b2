package main

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-resources/engine/systems"
)

func newCatCmd() *cobra.Command {
	var dumpHex bool

	cmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print a file read outside the asset stores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dumpHex {
				data, ok := systems.LoadByteFile(p)
				if !ok {
					return fmt.Errorf("file %s not found", p)
				}
				fmt.Fprint(out, hex.Dump(data))
				return nil
			}

			text, ok := systems.LoadTextFile(p)
			if !ok {
				return fmt.Errorf("file %s not found", p)
			}
			fmt.Fprint(out, text)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dumpHex, "hex", "x", false, "hex dump instead of text")
	return cmd
}
