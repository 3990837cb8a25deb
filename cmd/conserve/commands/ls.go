package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yonasBSD/conserve/internal/cli/output"
	"github.com/yonasBSD/conserve/internal/cli/timeutil"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the bands in the archive",
	Long:  `List every band in the archive with its start time and completeness.`,
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, _, err := openArchive(ctx)
	if err != nil {
		return err
	}

	ids, err := a.Bands(ctx)
	if err != nil {
		return fmt.Errorf("ls: %w", err)
	}

	table := output.NewTableData("BAND", "START", "AGE", "SOURCE", "COMPLETE")
	for _, id := range ids {
		b, err := a.OpenBand(ctx, id)
		if err != nil {
			return fmt.Errorf("ls: opening %s: %w", id, err)
		}
		complete, err := b.IsComplete(ctx)
		if err != nil {
			return fmt.Errorf("ls: checking %s: %w", id, err)
		}
		head := b.Head()
		age := timeutil.FormatUptime(time.Since(head.StartTime).String())
		table.AddRow(id.String(), timeutil.FormatTime(head.StartTime.Format(time.RFC3339)), age, head.Source, fmt.Sprintf("%t", complete))
	}

	return output.PrintTable(os.Stdout, table)
}
