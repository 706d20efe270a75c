package main

import (
	"fmt"
	"strings"

	reemesh "github.com/flywave/go-reemesh"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var materialsCmd = &cobra.Command{
	Use:   "materials <mdf>...",
	Short: "List the materials, flags and textures of MDF files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := textureOptions()
		for _, path := range args {
			set, err := reemesh.MaterialReadFrom(path, reemesh.WithLogger(logger))
			if err != nil {
				return err
			}
			logger.Info("decoded mdf", zap.String("path", path), zap.Int("materials", set.Len()))
			pterm.DefaultSection.Println(path)
			if err := pterm.DefaultTable.WithHasHeader().WithData(materialTable(set)).Render(); err != nil {
				return err
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(textureTable(set, path, opts)).Render(); err != nil {
				return err
			}
		}
		return nil
	},
}

func textureOptions() reemesh.TexturePathOptions {
	return reemesh.TexturePathOptions{Streaming: cfg.StreamingTextures, Suffix: cfg.TextureSuffix}
}

func materialTable(set *reemesh.MaterialSet) pterm.TableData {
	data := pterm.TableData{{"#", "Name", "Shader", "Flags", "Textures", "Properties"}}
	for i, m := range set.Materials() {
		data = append(data, []string{
			fmt.Sprint(i),
			m.Name,
			m.ShaderType.String(),
			strings.Join(m.Flags.Names(), " "),
			fmt.Sprint(len(m.Textures)),
			fmt.Sprint(len(m.Properties)),
		})
	}
	return data
}

func textureTable(set *reemesh.MaterialSet, mdfPath string, opts reemesh.TexturePathOptions) pterm.TableData {
	data := pterm.TableData{{"Material", "Slot", "Normal", "File"}}
	for _, m := range set.Materials() {
		for _, t := range m.Textures {
			data = append(data, []string{
				m.Name,
				t.Type,
				fmt.Sprint(t.IsNormalMap()),
				t.ResolvePath(mdfPath, cfg.AssetRoot, opts),
			})
		}
	}
	return data
}

func init() {
	materialsCmd.Flags().StringVar(&flags.AssetRoot, "asset-root", "", "resolve texture paths below this directory instead of the MDF's x64 root")
	materialsCmd.Flags().BoolVar(&flags.Streaming, "streaming", false, "resolve the high resolution textures under Streaming/")
}
