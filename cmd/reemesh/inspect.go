package main

import (
	"fmt"

	reemesh "github.com/flywave/go-reemesh"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <mesh>...",
	Short: "Print the LOD, mainmesh and submesh structure of mesh files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			ms, err := reemesh.MeshReadFrom(path, reemesh.WithLogger(logger))
			if err != nil {
				return err
			}
			logger.Info("decoded mesh", zap.String("path", path), zap.Uint32("version", ms.Header.Version))
			if err := pterm.DefaultTree.WithRoot(meshTree(path, ms)).Render(); err != nil {
				return err
			}
		}
		return nil
	},
}

func meshTree(path string, ms *reemesh.Mesh) pterm.TreeNode {
	root := pterm.TreeNode{Text: fmt.Sprintf("%s (version %d, %d names)", path, ms.Header.Version, len(ms.NameTable.Names))}
	for _, model := range ms.Models() {
		root.Children = append(root.Children, modelTree(ms, model))
	}
	if ms.Armature != nil {
		bones := pterm.TreeNode{Text: fmt.Sprintf("armature: %d bones, %d skin slots", ms.Armature.BoneCount, ms.Armature.SkinMapSize)}
		for i, h := range ms.Armature.Hierarchy {
			name, _ := ms.BoneName(i)
			bones.Children = append(bones.Children, pterm.TreeNode{Text: fmt.Sprintf("[%d] %s parent=%d", i, name, h.Parent)})
		}
		root.Children = append(root.Children, bones)
	}
	if len(ms.BoundingBoxes) > 0 {
		root.Children = append(root.Children, pterm.TreeNode{Text: fmt.Sprintf("bounding boxes: %d", len(ms.BoundingBoxes))})
	}
	return root
}

func modelTree(ms *reemesh.Mesh, model *reemesh.ModelInfo) pterm.TreeNode {
	kind := "main"
	if model.Shadow {
		kind = "shadow"
	}
	node := pterm.TreeNode{Text: fmt.Sprintf("%s: %d LOD slots, %d unique, %d materials, %d UV layers",
		kind, model.LODGroupCount, model.UniqueLODCount(), model.MaterialCount, model.UVLayerCount)}
	for l, lod := range model.LODGroups {
		lodNode := pterm.TreeNode{Text: fmt.Sprintf("LOD%d distance=%g", l, lod.Distance)}
		for _, mm := range lod.Mainmeshes {
			mmNode := pterm.TreeNode{Text: fmt.Sprintf("group %d: %d vertices, %d indices", mm.GroupID, mm.VertexCount, mm.FaceIndexCount)}
			for s, sm := range mm.Submeshes {
				mat, _ := ms.MaterialName(sm.MaterialID)
				mmNode.Children = append(mmNode.Children, pterm.TreeNode{
					Text: fmt.Sprintf("submesh %d: %s, %d vertices, %d faces", s, mat, sm.VertexCount, len(sm.Faces)),
				})
			}
			lodNode.Children = append(lodNode.Children, mmNode)
		}
		node.Children = append(node.Children, lodNode)
	}
	return node
}
