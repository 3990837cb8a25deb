package index

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/codec"
	"github.com/yonasBSD/conserve/pkg/transport"
)

// Reader streams the hunks of a single band's index in numeric order. A
// Reader is single-pass; construct a new one to restart.
type Reader struct {
	tr transport.Transport

	// hunkCount, if non-negative, is the BANDTAIL-declared number of hunks.
	// When set, a missing hunk before hunkCount is IndexCorrupt rather than
	// end-of-index.
	hunkCount int
	band      string
}

// NewReader returns a Reader over tr (rooted at the band directory). band
// is used only for error messages. hunkCount is the BANDTAIL-declared hunk
// count, or -1 if the band is incomplete and the reader should stop at the
// first missing hunk.
func NewReader(tr transport.Transport, band string, hunkCount int) *Reader {
	return &Reader{tr: tr, band: band, hunkCount: hunkCount}
}

// readHunk reads and decodes hunk number n, returning (entries, found).
// found is false when n is past the end of a complete (no-gaps) index.
func (r *Reader) readHunk(ctx context.Context, n int) ([]Entry, bool, error) {
	path := hunkPath(n)
	exists, err := r.tr.Exists(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("index: checking hunk %d: %w", n, err)
	}
	if !exists {
		if r.hunkCount >= 0 && n < r.hunkCount {
			return nil, false, archiveerror.IndexCorrupt("Read", r.band, fmt.Sprint(n),
				"hunk missing but BANDTAIL declares a higher count")
		}
		return nil, false, nil
	}

	compressed, err := r.tr.Read(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("index: reading hunk %d: %w", n, err)
	}
	data, err := codec.Decompress(compressed)
	if err != nil {
		return nil, false, archiveerror.IndexCorrupt("Read", r.band, fmt.Sprint(n), "decompress failed: "+err.Error())
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, archiveerror.IndexCorrupt("Read", r.band, fmt.Sprint(n), "json decode failed: "+err.Error())
	}
	return entries, true, nil
}

// All returns a pull-based sequence over every Entry in the band, in order.
// Iteration stops early (with no error surfaced through the sequence) if
// the consumer's yield function returns false. A decode error aborts
// iteration; callers that need to observe it should use Each instead.
func (r *Reader) All(ctx context.Context) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		_ = r.Each(ctx, func(e Entry) bool {
			return yield(e)
		})
	}
}

// Each calls fn for every Entry in the band, in order, stopping early if fn
// returns false. It returns the first error encountered reading or
// decoding a hunk.
func (r *Reader) Each(ctx context.Context, fn func(Entry) bool) error {
	for n := 0; ; n++ {
		entries, found, err := r.readHunk(ctx, n)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		for _, e := range entries {
			if !fn(e) {
				return nil
			}
		}
	}
}

// ReadAll reads the entire band index into memory. Intended for tests and
// small archives; production pipelines should prefer All/Each.
func (r *Reader) ReadAll(ctx context.Context) ([]Entry, error) {
	var all []Entry
	err := r.Each(ctx, func(e Entry) bool {
		all = append(all, e)
		return true
	})
	return all, err
}

// MaxApath returns the last entry in the last hunk the reader can see, with
// ok false if the index has no entries at all. It is used by
// the stitcher to find the cutoff point of a partial band.
func (r *Reader) MaxApath(ctx context.Context) (last Entry, ok bool, err error) {
	err = r.Each(ctx, func(e Entry) bool {
		last = e
		ok = true
		return true
	})
	return last, ok, err
}
