package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-resources/engine/bundles"
)

func newPackCmd(root *rootOptions) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "pack <pack.toml>",
		Short: "Pack project assets into bundles",
		Long: `Reads a list of [[bundles]] tables (name, assets, dependencies) and writes one
archive per bundle plus the manifest into the configured bundle directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := root.config(cmd)
			if err != nil {
				return err
			}
			specs, err := bundles.ReadBuildSpecs(args[0])
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = config.BundleDir()
			}

			m, err := bundles.Build(outDir, config.ProjectDir, specs)
			if err != nil {
				return err
			}
			for _, name := range m.Names() {
				b, _ := m.Bundle(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d assets\t%s\n", b.File, len(b.Assets), b.Hash)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: bundles.dir)")
	return cmd
}

func newManifestCmd(root *rootOptions) *cobra.Command {
	var (
		verify bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "manifest [manifest.toml]",
		Short: "List the bundles of a manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p string
			if len(args) == 1 {
				p = args[0]
			} else {
				config, err := root.config(cmd)
				if err != nil {
					return err
				}
				p = filepath.Join(config.BundleDir(), config.Bundles.Manifest)
			}

			m, err := bundles.LoadManifest(p)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch output {
			case "text":
			case "toml":
				return m.Write(out)
			case "yaml":
				return m.WriteYAML(out)
			default:
				return fmt.Errorf("unknown output format %q", output)
			}

			bad := 0
			for _, name := range m.Names() {
				b, _ := m.Bundle(name)
				deps := "-"
				if len(b.Dependencies) > 0 {
					deps = strings.Join(b.Dependencies, ",")
				}
				fmt.Fprintf(out, "%s\t%s\tdeps=%s\t%d assets", b.Name, b.File, deps, len(b.Assets))

				if verify && b.Hash != "" {
					hash, err := bundles.HashFile(filepath.Join(filepath.Dir(p), b.File))
					switch {
					case err != nil:
						fmt.Fprintf(out, "\t%v", err)
						bad++
					case hash != b.Hash:
						fmt.Fprintf(out, "\thash mismatch %s != %s", hash, b.Hash)
						bad++
					default:
						fmt.Fprint(out, "\tok")
					}
				}
				fmt.Fprintln(out)
			}
			if bad > 0 {
				return fmt.Errorf("%d bundles failed verification", bad)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check bundle files against their manifest hash")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "text, toml or yaml")
	return cmd
}
