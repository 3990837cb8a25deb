package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yonasBSD/conserve/pkg/index"
	"github.com/yonasBSD/conserve/pkg/stitch"
)

var treeBand string

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "List the files and directories in a band",
	Long: `List every entry in the stitched index for the selected band.
Defaults to the latest complete band.

Examples:
  conserve tree
  conserve tree --band b0007`,
	Args: cobra.NoArgs,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&treeBand, "band", "", "band to list (default: latest complete band)")
}

func runTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, _, err := openArchive(ctx)
	if err != nil {
		return err
	}

	sel, err := parseBandSelector(treeBand)
	if err != nil {
		return err
	}

	id, err := resolveListBand(ctx, a, sel)
	if err != nil {
		return err
	}

	stream, err := stitch.Stream(ctx, a, id)
	if err != nil {
		return fmt.Errorf("tree: %w", err)
	}

	return stream.Each(ctx, func(e index.Entry) bool {
		fmt.Printf("%-5s %10d  %s\n", e.Kind, e.Size, e.Apath)
		return true
	})
}
