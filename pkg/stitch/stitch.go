// Package stitch merges an interrupted band's partial index with its
// nearest complete predecessor, presenting a best-effort-complete view of
// the tree as of that band's head time.
package stitch

import (
	"context"
	"fmt"

	"github.com/yonasBSD/conserve/pkg/apath"
	"github.com/yonasBSD/conserve/pkg/archive"
	"github.com/yonasBSD/conserve/pkg/band"
	"github.com/yonasBSD/conserve/pkg/index"
)

// Stream returns the stitched index.EntryStream for band id in a. If the
// band is complete, this is simply its own index; otherwise it is merged
// with the newest complete predecessor band, per the algorithm in the
// stitching design: entries from the target band first, then entries from
// the predecessor with apath greater than the target's last written entry.
func Stream(ctx context.Context, a *archive.Archive, id band.ID) (index.EntryStream, error) {
	target, err := a.OpenBand(ctx, id)
	if err != nil {
		return nil, err
	}

	complete, err := target.IsComplete(ctx)
	if err != nil {
		return nil, err
	}
	if complete {
		tail, err := target.Tail(ctx)
		if err != nil {
			return nil, err
		}
		return index.NewReader(target.Transport(), id.String(), tail.IndexHunkCount), nil
	}

	partial := index.NewReader(target.Transport(), id.String(), -1)

	cutoff, hasCutoff, err := partial.MaxApath(ctx)
	if err != nil {
		return nil, err
	}

	predecessor, ok, err := newestCompletePredecessor(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		// No complete predecessor: the stitched view is just the partial index.
		return index.NewReader(target.Transport(), id.String(), -1), nil
	}

	predTail, err := predecessor.Tail(ctx)
	if err != nil {
		return nil, err
	}
	predReader := index.NewReader(predecessor.Transport(), predecessor.ID.String(), predTail.IndexHunkCount)

	m := &merged{
		target:      index.NewReader(target.Transport(), id.String(), -1),
		predecessor: predReader,
	}
	if hasCutoff {
		m.cutoff = cutoff.Apath
		m.hasCutoff = true
	}
	// else: target band has zero hunks, so the entire predecessor index is
	// used (m.hasCutoff stays false).
	return m, nil
}

// newestCompletePredecessor returns the newest complete band with an ID
// strictly less than id.
func newestCompletePredecessor(ctx context.Context, a *archive.Archive, id band.ID) (*band.Band, bool, error) {
	ids, err := a.Bands(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := len(ids) - 1; i >= 0; i-- {
		if !ids[i].Less(id) {
			continue
		}
		b, err := a.OpenBand(ctx, ids[i])
		if err != nil {
			return nil, false, err
		}
		complete, err := b.IsComplete(ctx)
		if err != nil {
			return nil, false, err
		}
		if complete {
			return b, true, nil
		}
	}
	return nil, false, nil
}

// merged is the two-source merge state machine: yield all of the target's
// entries, then the predecessor's entries with apath beyond cutoff.
type merged struct {
	target      *index.Reader
	predecessor *index.Reader
	cutoff      apath.Apath
	hasCutoff   bool
}

// Each implements index.EntryStream.
func (m *merged) Each(ctx context.Context, fn func(index.Entry) bool) error {
	stopped := false
	err := m.target.Each(ctx, func(e index.Entry) bool {
		if !fn(e) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("stitch: reading target index: %w", err)
	}
	if stopped {
		return nil
	}

	err = m.predecessor.Each(ctx, func(e index.Entry) bool {
		if m.hasCutoff && !m.cutoff.Less(e.Apath) {
			return true // skip: apath <= cutoff, already covered by target
		}
		return fn(e)
	})
	if err != nil {
		return fmt.Errorf("stitch: reading predecessor index: %w", err)
	}
	return nil
}
