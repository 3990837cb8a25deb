package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yonasBSD/conserve/pkg/archive"
	"github.com/yonasBSD/conserve/pkg/band"
	"github.com/yonasBSD/conserve/pkg/diff"
	"github.com/yonasBSD/conserve/pkg/stitch"
)

var (
	diffFrom string
	diffTo   string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show what changed between two bands",
	Long: `Compare the stitched index of two bands and print every added,
removed, or modified apath. Defaults to comparing the latest complete band
against the complete band immediately before it.

Examples:
  conserve diff
  conserve diff --from b0001 --to b0003`,
	Args: cobra.NoArgs,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffFrom, "from", "", "earlier band (default: the complete band before --to)")
	diffCmd.Flags().StringVar(&diffTo, "to", "", "later band (default: latest complete band)")
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, _, err := openArchive(ctx)
	if err != nil {
		return err
	}

	fromID, toID, err := resolveDiffBands(ctx, a, diffFrom, diffTo)
	if err != nil {
		return err
	}

	fromStream, err := stitch.Stream(ctx, a, fromID)
	if err != nil {
		return fmt.Errorf("diff: reading %s: %w", fromID, err)
	}
	toStream, err := stitch.Stream(ctx, a, toID)
	if err != nil {
		return fmt.Errorf("diff: reading %s: %w", toID, err)
	}

	fmt.Printf("Diff %s -> %s\n", fromID, toID)
	var added, removed, modified int
	err = diff.Diff(ctx, fromStream, toStream, func(c diff.Change) bool {
		switch c.Kind {
		case diff.Unchanged:
			return true
		case diff.Added:
			added++
		case diff.Removed:
			removed++
		case diff.Modified:
			modified++
		}
		fmt.Printf("%-9s %s\n", c.Kind, c.Apath)
		return true
	})
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}

	fmt.Printf("%d added, %d removed, %d modified\n", added, removed, modified)
	return nil
}

// resolveDiffBands fills in unspecified --from/--to selectors: --to
// defaults to the latest complete band, --from to the complete band
// immediately before it.
func resolveDiffBands(ctx context.Context, a *archive.Archive, from, to string) (fromID, toID band.ID, err error) {
	ids, err := a.Bands(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, fmt.Errorf("diff: archive has no bands")
	}

	complete := make([]band.ID, 0, len(ids))
	for _, id := range ids {
		b, err := a.OpenBand(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		ok, err := b.IsComplete(ctx)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			complete = append(complete, id)
		}
	}

	if to != "" {
		toID, err = band.Parse(to)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --to %q: %w", to, err)
		}
	} else {
		if len(complete) == 0 {
			return nil, nil, fmt.Errorf("diff: archive has no complete bands")
		}
		toID = complete[len(complete)-1]
	}

	if from != "" {
		fromID, err = band.Parse(from)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --from %q: %w", from, err)
		}
		return fromID, toID, nil
	}

	for i := len(complete) - 1; i >= 0; i-- {
		if band.Compare(complete[i], toID) < 0 {
			return complete[i], toID, nil
		}
	}
	return nil, nil, fmt.Errorf("diff: no complete band found before %s; specify --from explicitly", toID)
}
