package restore

import (
	"context"
	"fmt"

	"github.com/yonasBSD/conserve/pkg/archive"
	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/band"
	"github.com/yonasBSD/conserve/pkg/hash"
	"github.com/yonasBSD/conserve/pkg/index"
)

// Problem is one defect found by Validate. It never aborts the scan: every
// problem found is collected and returned together.
type Problem struct {
	Band string
	Kind archiveerror.Kind
	Path string
	Note string
}

func (p Problem) String() string {
	if p.Band != "" {
		return fmt.Sprintf("%s: %s: %s", p.Band, p.Kind, p.Note)
	}
	return fmt.Sprintf("%s: %s", p.Kind, p.Note)
}

// Report is the full result of a Validate run.
type Report struct {
	BlocksChecked int
	BandsChecked  int
	Problems      []Problem
}

// OK reports whether the archive is free of detected problems.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// Validate performs the four-level consistency audit described for the
// archive format: header parseability (implicit in a.Open having already
// succeeded), block-level re-hash, band-level address-range checks, and
// index-level ordering/density checks. It never mutates the archive or
// any destination tree.
func Validate(ctx context.Context, a *archive.Archive) (Report, error) {
	var report Report

	names, err := a.BlockDir().BlockNames(ctx)
	if err != nil {
		return report, fmt.Errorf("validate: listing blocks: %w", err)
	}
	present := make(map[hash.BlockHash]int, len(names))
	for _, h := range names {
		report.BlocksChecked++
		length, ok, err := a.BlockDir().Validate(ctx, h)
		if err != nil {
			return report, fmt.Errorf("validate: reading block %s: %w", h, err)
		}
		if !ok {
			report.Problems = append(report.Problems, Problem{
				Kind: archiveerror.KindBlockCorrupt,
				Path: string(h),
				Note: "stored block does not re-hash to its filename",
			})
			continue
		}
		present[h] = length
	}

	ids, err := a.Bands(ctx)
	if err != nil {
		return report, fmt.Errorf("validate: listing bands: %w", err)
	}
	for _, id := range ids {
		report.BandsChecked++
		if err := validateBand(ctx, a, id, present, &report); err != nil {
			return report, err
		}
	}

	return report, nil
}

func validateBand(ctx context.Context, a *archive.Archive, id band.ID, present map[hash.BlockHash]int, report *Report) error {
	b, err := a.OpenBand(ctx, id)
	if err != nil {
		return fmt.Errorf("validate: opening band %s: %w", id, err)
	}

	complete, err := b.IsComplete(ctx)
	if err != nil {
		return fmt.Errorf("validate: checking completeness of %s: %w", id, err)
	}

	declared := -1
	if complete {
		tail, err := b.Tail(ctx)
		if err != nil {
			return fmt.Errorf("validate: reading tail of %s: %w", id, err)
		}
		declared = tail.IndexHunkCount
	}

	r := index.NewReader(b.Transport(), id.String(), declared)

	var last index.Entry
	haveLast := false
	err = r.Each(ctx, func(e index.Entry) bool {
		if haveLast && !last.Apath.Less(e.Apath) {
			report.Problems = append(report.Problems, Problem{
				Band: id.String(), Kind: archiveerror.KindIndexCorrupt, Path: string(e.Apath),
				Note: "apath does not strictly increase over the previous entry",
			})
		}
		last, haveLast = e, true

		for _, addr := range e.Addrs {
			length, ok := present[addr.Hash]
			if !ok {
				report.Problems = append(report.Problems, Problem{
					Band: id.String(), Kind: archiveerror.KindBlockCorrupt, Path: string(e.Apath),
					Note: fmt.Sprintf("references missing block %s", addr.Hash),
				})
				continue
			}
			if addr.Start+addr.Length > uint64(length) {
				report.Problems = append(report.Problems, Problem{
					Band: id.String(), Kind: archiveerror.KindAddressOutOfRange, Path: string(e.Apath),
					Note: fmt.Sprintf("address [%d,%d) exceeds block %s length %d", addr.Start, addr.Start+addr.Length, addr.Hash, length),
				})
			}
		}
		return true
	})
	if err != nil {
		if archiveerror.Is(err, archiveerror.KindIndexCorrupt) {
			report.Problems = append(report.Problems, Problem{
				Band: id.String(), Kind: archiveerror.KindIndexCorrupt, Note: err.Error(),
			})
			return nil
		}
		return fmt.Errorf("validate: reading index of %s: %w", id, err)
	}
	return nil
}
