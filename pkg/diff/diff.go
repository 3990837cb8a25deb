// Package diff implements change detection between two stitched archive
// indexes by a streaming merge-join on apath, using O(1) memory regardless
// of tree size.
package diff

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/yonasBSD/conserve/pkg/apath"
	"github.com/yonasBSD/conserve/pkg/index"
)

// ChangeKind classifies how an apath differs between the "from" and "to"
// index streams.
type ChangeKind string

const (
	Added     ChangeKind = "Added"
	Removed   ChangeKind = "Removed"
	Modified  ChangeKind = "Modified"
	Unchanged ChangeKind = "Unchanged"
)

// Change is one merge-join result: an apath present in "from", "to", or
// both, with the entries observed on each side (the absent side's Entry is
// the zero value).
type Change struct {
	Apath apath.Apath
	Kind  ChangeKind
	From  index.Entry
	To    index.Entry
}

// Diff performs a merge-join of from and to by apath and calls fn for
// every Change, in apath order, until fn returns false or both streams are
// exhausted. Both streams must already be in strictly increasing apath
// order, which every index.EntryStream in this module guarantees.
func Diff(ctx context.Context, from, to index.EntryStream, fn func(Change) bool) error {
	fromSeq, fromErr := seqFromStream(ctx, from)
	toSeq, toErr := seqFromStream(ctx, to)

	fromNext, fromStop := iter.Pull(fromSeq)
	defer fromStop()
	toNext, toStop := iter.Pull(toSeq)
	defer toStop()

	fe, fok := fromNext()
	te, tok := toNext()

	for fok || tok {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch {
		case fok && (!tok || fe.Apath.Less(te.Apath)):
			if !fn(Change{Apath: fe.Apath, Kind: Removed, From: fe}) {
				return nil
			}
			fe, fok = fromNext()

		case tok && (!fok || te.Apath.Less(fe.Apath)):
			if !fn(Change{Apath: te.Apath, Kind: Added, To: te}) {
				return nil
			}
			te, tok = toNext()

		default:
			kind := Unchanged
			if !equal(fe, te) {
				kind = Modified
			}
			if !fn(Change{Apath: fe.Apath, Kind: kind, From: fe, To: te}) {
				return nil
			}
			fe, fok = fromNext()
			te, tok = toNext()
		}
	}

	if err := fromErr(); err != nil {
		return fmt.Errorf("diff: reading from-stream: %w", err)
	}
	if err := toErr(); err != nil {
		return fmt.Errorf("diff: reading to-stream: %w", err)
	}
	return nil
}

// equal compares the fields the spec designates as significant: kind,
// mtime, size, block addresses, mode, and symlink target. Owner/group
// names and uid/gid are deliberately excluded: they do not affect
// restored content and commonly differ across hosts.
func equal(a, b index.Entry) bool {
	return a.Kind == b.Kind &&
		a.MTime == b.MTime &&
		a.MTimeNanos == b.MTimeNanos &&
		a.Size == b.Size &&
		a.UnixMode == b.UnixMode &&
		a.Target == b.Target &&
		slices.Equal(a.Addrs, b.Addrs)
}

// seqFromStream adapts an index.EntryStream's push-based Each into an
// iter.Seq, so the merge-join below can drive both sides with iter.Pull
// and hold at most one entry per side in memory at a time. The returned
// err function is only meaningful after the sequence is fully drained or
// stopped.
func seqFromStream(ctx context.Context, s index.EntryStream) (seq iter.Seq[index.Entry], err func() error) {
	var streamErr error
	seq = func(yield func(index.Entry) bool) {
		streamErr = s.Each(ctx, yield)
	}
	return seq, func() error { return streamErr }
}
