package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	reemesh "github.com/flywave/go-reemesh"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var convertFlags struct {
	mdf    string
	output string
}

var convertCmd = &cobra.Command{
	Use:   "convert <mesh>",
	Short: "Convert a mesh file to binary glTF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ms, err := reemesh.MeshReadFrom(path, reemesh.WithLogger(logger))
		if err != nil {
			return err
		}

		opts := reemesh.ExportOptions{
			IncludeShadow:  cfg.IncludeShadow,
			HighestLODOnly: cfg.HighestLODOnly,
			SkipArmature:   cfg.SkipArmature,
		}
		if convertFlags.mdf != "" {
			if opts.Materials, err = reemesh.MaterialReadFrom(convertFlags.mdf, reemesh.WithLogger(logger)); err != nil {
				return err
			}
		}

		doc, err := reemesh.MeshToGltf(ms, opts)
		if err != nil {
			return err
		}
		glb, err := reemesh.GetGltfBinary(doc, cfg.PaddingUnit)
		if err != nil {
			return err
		}

		out := convertFlags.output
		if out == "" {
			out = strings.TrimSuffix(path, filepath.Ext(path)) + ".glb"
		}
		if err := os.WriteFile(out, glb, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		logger.Info("wrote glb", zap.String("path", out), zap.Int("bytes", len(glb)),
			zap.Int("meshes", len(doc.Meshes)), zap.Int("materials", len(doc.Materials)))
		pterm.Success.Printfln("%s -> %s", path, out)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertFlags.mdf, "mdf", "", "MDF file used to style materials")
	convertCmd.Flags().StringVarP(&convertFlags.output, "output", "o", "", "output .glb path (default: next to the mesh)")
	convertCmd.Flags().BoolVar(&flags.IncludeShadow, "shadow", false, "also export the shadow geometry")
	convertCmd.Flags().BoolVar(&flags.HighestLODOnly, "lod0", false, "export only the highest detail LOD")
	convertCmd.Flags().BoolVar(&flags.SkipArmature, "no-armature", false, "drop joints and skinning")
}
