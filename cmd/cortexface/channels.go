package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/normanking/cortexface/internal/face"
	"github.com/normanking/cortexface/internal/rig"
	"github.com/spf13/cobra"
)

func newChannelsCmd(flags *globalFlags) *cobra.Command {
	var (
		gltfPath string
		mesh     string
		profile  string
	)

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Show how face channels resolve onto an avatar's morph targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			defer logger.Close()

			if gltfPath != "" {
				cfg.Rig.Source = "gltf"
				cfg.Rig.Path = gltfPath
				cfg.Rig.Mesh = mesh
			}
			if profile != "" {
				cfg.Rig.Profile = profile
			}

			src, err := cfg.AvatarSource()
			if err != nil {
				return err
			}
			prof, err := cfg.RigProfile()
			if err != nil {
				return err
			}
			sink, err := rig.NewBlendshapeSink(src, prof, logger.Component("rig"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source: %s (%d morph targets)\n\n", src.Name(), len(sink.Names()))

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHANNEL\tTARGETS")
			resolved := sink.Resolved()
			for _, ch := range face.Channels() {
				targets := "-"
				if len(resolved[ch]) > 0 {
					targets = strings.Join(resolved[ch], ", ")
				}
				fmt.Fprintf(tw, "%s\t%s\n", ch, targets)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if missing := sink.Missing(); len(missing) > 0 {
				fmt.Fprintf(out, "\nmissing on avatar: %s\n", strings.Join(missing, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&gltfPath, "gltf", "", "inspect this glTF/GLB file instead of the configured source")
	cmd.Flags().StringVar(&mesh, "mesh", "", "mesh name inside the glTF file")
	cmd.Flags().StringVar(&profile, "profile", "", "channel profile YAML")
	return cmd
}
