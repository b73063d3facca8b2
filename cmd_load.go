package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-resources/engine/resources"
	"github.com/spaghettifunk/anima-resources/engine/resources/loaders"
	"github.com/spaghettifunk/anima-resources/engine/systems"
)

func newLoadCmd(root *rootOptions) *cobra.Command {
	var (
		typeName  string
		editor    bool
		dump      bool
		keepOpen  bool
		showStats bool
	)

	cmd := &cobra.Command{
		Use:   "load <asset-path>...",
		Short: "Load assets through the configured stores",
		Long: `Loads every "Assets/..." path with the configured load mode and prints
where it was found. The resource type defaults to the one the extension maps to.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := root.config(cmd)
			if err != nil {
				return err
			}
			if editor || config.LoadMode == resources.LoadModeEditorAsset {
				config.Editor.Enabled = true
			}
			rs, err := systems.NewFromConfig(config)
			if err != nil {
				return err
			}
			defer rs.Shutdown()

			var opts []systems.LoadOption
			if keepOpen {
				opts = append(opts, systems.WithoutStoreEviction())
			}

			out := cmd.OutOrStdout()
			missing := 0
			for _, p := range args {
				resourceType, err := resourceTypeFor(typeName, p)
				if err != nil {
					return err
				}

				var res *resources.Resource
				var ok bool
				if editor {
					res, ok = rs.LoadAssetAtPath(p, resourceType)
				} else {
					res, ok = rs.Load(p, resourceType, opts...)
				}
				if !ok {
					fmt.Fprintf(out, "%s\tnot found\n", p)
					missing++
					continue
				}

				fmt.Fprintf(out, "%s\t%s\t%s\t%d bytes\t%s\n", p, res.Origin, res.Type, res.DataSize, res.ID)
				if dump {
					printData(cmd, res)
				}
				rs.Unload(p)
			}

			if showStats {
				printStats(cmd, rs.Metrics().Snapshot())
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d assets not found", missing, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "resource type (text, binary, image, material, shader, mesh, bitmap_font, system_font)")
	cmd.Flags().BoolVar(&editor, "editor", false, "ask the editor asset database directly")
	cmd.Flags().BoolVar(&dump, "print", false, "print text and material data")
	cmd.Flags().BoolVar(&keepOpen, "keep-open", false, "keep bundles open until the asset is unloaded")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print per-store counters at the end")
	return cmd
}

func resourceTypeFor(typeName, p string) (resources.ResourceType, error) {
	if typeName != "" {
		return resources.ParseResourceType(typeName)
	}
	if t := loaders.TypeForPath(p); t != resources.ResourceTypeNone {
		return t, nil
	}
	return resources.ResourceTypeBinary, nil
}

func printData(cmd *cobra.Command, res *resources.Resource) {
	out := cmd.OutOrStdout()
	switch data := res.Data.(type) {
	case string:
		fmt.Fprintln(out, data)
	case *resources.MaterialConfig:
		fmt.Fprintf(out, "  material %s shader=%s diffuse=%s colour=%v\n", data.Name, data.ShaderName, data.DiffuseMapName, data.DiffuseColour)
	case *resources.ImageResourceData:
		fmt.Fprintf(out, "  image %dx%d, %d channels\n", data.Width, data.Height, data.ChannelCount)
	}
}

func printStats(cmd *cobra.Command, snap systems.MetricsSnapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "loads=%d misses=%d\n", snap.Loads, snap.Misses)
	for _, s := range []systems.Store{systems.StoreEditor, systems.StoreBundle, systems.StoreResources} {
		c := snap.Stores[s.String()]
		fmt.Fprintf(out, "  %-9s hits=%d failed=%d skipped=%d\n", s, c.Hits, c.Failed, c.Skipped)
	}
}
