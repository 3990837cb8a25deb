package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yonasBSD/conserve/pkg/restore"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Audit archive consistency",
	Long: `Re-hash every stored block, check each band's address ranges, and
verify index ordering, without touching a destination tree. Exits non-zero
if any problem is found.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, _, err := openArchive(ctx)
	if err != nil {
		return err
	}

	report, err := restore.Validate(ctx, a)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	fmt.Printf("Checked %d bands, %d blocks\n", report.BandsChecked, report.BlocksChecked)
	for _, p := range report.Problems {
		fmt.Fprintln(os.Stderr, p.String())
	}

	if !report.OK() {
		return fmt.Errorf("%d problem(s) found", len(report.Problems))
	}
	fmt.Println("Archive OK")
	return nil
}
