package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yonasBSD/conserve/pkg/archive"
	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/config"
)

var (
	initForce   bool
	initArchive string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Long: `Initialize a Conserve configuration file with default values.

By default, the configuration file is created at
$XDG_CONFIG_HOME/conserve/config.yaml. Use --config to choose a different
path, and --archive to set the archive location up front.

Examples:
  # Initialize with default location
  conserve init --archive /srv/backups/home

  # Initialize with a custom config path
  conserve init --config /etc/conserve/config.yaml --archive s3://my-bucket/backups

  # Overwrite an existing config file
  conserve init --archive /srv/backups/home --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().StringVar(&initArchive, "archive", "", "archive location (local path or s3://bucket/prefix)")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg := config.GetDefaultConfig()
	if initArchive != "" {
		cfg.Archive.Path = initArchive
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)

	if initArchive == "" {
		fmt.Printf("\nNo --archive was given; archive.path is set to the default %s. Edit the file's archive.path field, or re-run with --archive.\n", cfg.Archive.Path)
		fmt.Println("\nNext steps:")
		fmt.Printf("  1. Review and adjust %s\n", path)
		fmt.Println("  2. Run: conserve backup <source-dir>")
		return nil
	}

	ctx := cmd.Context()
	tr, err := config.NewArchiveTransport(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building transport for %s: %w", initArchive, err)
	}
	if _, err := archive.Create(ctx, tr, defaultPresenceCacheSize); err != nil {
		if errors.Is(err, archiveerror.ErrAlreadyExists) {
			fmt.Printf("Archive already exists at %s\n", initArchive)
		} else {
			return fmt.Errorf("creating archive at %s: %w", initArchive, err)
		}
	} else {
		fmt.Printf("Archive initialized at %s\n", initArchive)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Review and adjust %s\n", path)
	fmt.Println("  2. Run: conserve backup <source-dir>")

	return nil
}
