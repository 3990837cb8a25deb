package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yonasBSD/conserve/internal/failpoint"
	"github.com/yonasBSD/conserve/pkg/codec"
	"github.com/yonasBSD/conserve/pkg/transport"
)

// Writer accumulates Entry records in apath order and flushes them to
// numbered hunks once the in-memory buffer reaches EntryLimit. It is not
// safe for concurrent use; a backup pipeline drives it from a single
// goroutine.
type Writer struct {
	tr         transport.Transport
	buf        []Entry
	last       *Entry
	hunkNum    int
	entryLimit int
}

// NewWriter returns a Writer that writes hunks under tr, which should
// already be rooted at the band directory, flushing every EntryLimit
// entries.
func NewWriter(tr transport.Transport) *Writer {
	return &Writer{tr: tr, entryLimit: EntryLimit}
}

// NewWriterWithLimit is like NewWriter but flushes a hunk every limit
// entries instead of the default EntryLimit. limit <= 0 falls back to
// EntryLimit.
func NewWriterWithLimit(tr transport.Transport, limit int) *Writer {
	if limit <= 0 {
		limit = EntryLimit
	}
	return &Writer{tr: tr, entryLimit: limit}
}

// Put appends entry to the buffer, flushing a hunk first if the buffer is
// full. Entries must be strictly increasing by apath across the whole
// band; violating this is a programmer error and Put panics rather than
// silently corrupting the index.
func (w *Writer) Put(ctx context.Context, entry Entry) error {
	if w.last != nil && !w.last.Apath.Less(entry.Apath) {
		panic(fmt.Sprintf("index: entries must be strictly increasing by apath, got %q after %q", entry.Apath, w.last.Apath))
	}

	w.buf = append(w.buf, entry)
	e := entry
	w.last = &e

	if len(w.buf) >= w.entryLimit {
		return w.flush(ctx)
	}
	return nil
}

// flush writes the current buffer as the next hunk, if non-empty, and
// resets the buffer.
func (w *Writer) flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}

	data, err := json.Marshal(w.buf)
	if err != nil {
		return fmt.Errorf("index: encoding hunk %d: %w", w.hunkNum, err)
	}
	compressed := codec.Compress(data)

	if err := w.tr.Write(ctx, hunkPath(w.hunkNum), compressed); err != nil {
		return fmt.Errorf("index: writing hunk %d: %w", w.hunkNum, err)
	}
	if err := failpoint.Hit(ctx, "after-write-hunk"); err != nil {
		return fmt.Errorf("index: after-write-hunk: %w", err)
	}

	w.hunkNum++
	w.buf = w.buf[:0]
	return nil
}

// Finish flushes any remaining buffered entries (even a partial hunk) and
// returns the total number of hunks written. Callers must call Finish
// exactly once, after the last Put, before recording BANDTAIL.
func (w *Writer) Finish(ctx context.Context) (hunkCount int, err error) {
	if err := w.flush(ctx); err != nil {
		return 0, err
	}
	return w.hunkNum, nil
}
