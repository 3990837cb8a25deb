package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yonasBSD/conserve/internal/cli/output"
	"github.com/yonasBSD/conserve/pkg/config"
)

var configShowOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration operations",
	Long:  `Inspect Conserve's active configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the active configuration",
	Long: `Display the configuration that would be used for this invocation,
after merging the config file, environment variables, and defaults.

Examples:
  conserve config show
  conserve config show --output json`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configShowCmd.Flags().StringVarP(&configShowOutput, "output", "o", "yaml", "output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(configShowOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, cfg)
	default:
		return output.PrintYAML(os.Stdout, cfg)
	}
}
