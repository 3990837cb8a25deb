package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yonasBSD/conserve/pkg/backup"
)

var (
	backupExclude  []string
	backupThreads  int
	backupStrict   bool
	backupHostname string
)

var backupCmd = &cobra.Command{
	Use:   "backup SOURCE",
	Short: "Back up a directory tree into the archive",
	Long: `Walk SOURCE and store a new band in the archive, deduplicating
file content against every block the archive already holds.

Examples:
  conserve backup /home/alice
  conserve backup /home/alice --exclude "*.tmp" --exclude ".cache/**"`,
	Args: cobra.ExactArgs(1),
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringSliceVar(&backupExclude, "exclude", nil, "doublestar glob pattern to exclude (repeatable)")
	backupCmd.Flags().IntVar(&backupThreads, "threads", 0, "hash/compress worker count (0 = number of CPUs)")
	backupCmd.Flags().BoolVar(&backupStrict, "strict", false, "fail the backup on the first unreadable source entry")
	backupCmd.Flags().StringVar(&backupHostname, "hostname", "", "hostname recorded in the band header (default: os.Hostname())")
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sourceRoot := args[0]

	a, cfg, err := openOrCreateArchive(ctx)
	if err != nil {
		return err
	}

	hostname := backupHostname
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	policy := backup.Policy{
		Exclude:            append(append([]string(nil), cfg.Backup.Exclude...), backupExclude...),
		MaxEntriesPerHunk:  cfg.Backup.MaxEntriesPerHunk,
		TargetBlockSize:    cfg.Backup.TargetBlockSize.Uint64(),
		Threads:            cfg.Backup.Threads,
		StrictSourceErrors: cfg.Backup.StrictSourceErrors,
	}
	if backupThreads > 0 {
		policy.Threads = backupThreads
	}
	if backupStrict {
		policy.StrictSourceErrors = true
	}

	stats, err := backup.Run(ctx, a, sourceRoot, hostname, policy)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	fmt.Printf("Backup complete: %d dirs, %d files, %d symlinks\n", stats.Dirs, stats.Files, stats.Symlinks)
	fmt.Printf("  %d bytes read, %d blocks stored, %d deduped\n", stats.BytesRead, stats.BlocksStored, stats.BlocksDeduped)

	return nil
}
