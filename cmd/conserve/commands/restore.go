package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yonasBSD/conserve/pkg/restore"
)

var (
	restoreBand      string
	restoreOwnership bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore DEST",
	Short: "Restore a band's contents into DEST",
	Long: `Replay the stitched index for the selected band onto DEST, which
must already exist. Defaults to the latest complete band.

Examples:
  conserve restore /tmp/restored
  conserve restore /tmp/restored --band b0042`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreBand, "band", "", "band to restore (default: latest complete band)")
	restoreCmd.Flags().BoolVar(&restoreOwnership, "owner", false, "apply archived uid/gid to restored files (requires privilege)")
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	destRoot := args[0]

	a, cfg, err := openArchive(ctx)
	if err != nil {
		return err
	}

	sel, err := parseBandSelector(restoreBand)
	if err != nil {
		return err
	}

	opt := restore.Options{
		RestoreOwnership: cfg.Restore.RestoreOwnership || restoreOwnership,
	}

	stats, err := restore.Restore(ctx, a, sel, destRoot, opt)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	fmt.Printf("Restore complete: %d dirs, %d files, %d symlinks, %d bytes written\n",
		stats.Dirs, stats.Files, stats.Symlinks, stats.BytesWritten)

	return nil
}
