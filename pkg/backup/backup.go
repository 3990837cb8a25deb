package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/yonasBSD/conserve/pkg/apath"
	"github.com/yonasBSD/conserve/pkg/archive"
	"github.com/yonasBSD/conserve/pkg/bufpool"
	"github.com/yonasBSD/conserve/pkg/index"
)

// Run walks sourceRoot in apath order, writes a new band recording every
// Dir, Symlink, and File it visits, and finalizes the band with BANDTAIL
// once the walk completes successfully. If the walk fails partway through,
// the band is left without BANDTAIL: the stitcher can still serve a
// restore view from whatever hunks were durably written.
func Run(ctx context.Context, a *archive.Archive, sourceRoot, hostname string, policy Policy) (Stats, error) {
	policy = policy.withDefaults()

	b, err := a.CreateBand(ctx, hostname, sourceRoot)
	if err != nil {
		return Stats{}, err
	}

	var w *index.Writer
	if policy.MaxEntriesPerHunk > 0 {
		w = index.NewWriterWithLimit(b.Transport(), policy.MaxEntriesPerHunk)
	} else {
		w = index.NewWriter(b.Transport())
	}

	wk := &walker{archive: a, policy: policy, writer: w}

	rootInfo, err := os.Lstat(sourceRoot)
	if err != nil {
		return wk.stats, fmt.Errorf("backup: statting source root %s: %w", sourceRoot, err)
	}
	if err := wk.visitDir(ctx, sourceRoot, apath.Root, rootInfo); err != nil {
		return wk.stats, fmt.Errorf("backup: %w", err)
	}
	if err := wk.walkChildren(ctx, sourceRoot, apath.Root); err != nil {
		return wk.stats, fmt.Errorf("backup: %w", err)
	}

	hunkCount, err := w.Finish(ctx)
	if err != nil {
		return wk.stats, fmt.Errorf("backup: finishing index: %w", err)
	}
	if err := b.Close(ctx, hunkCount); err != nil {
		return wk.stats, fmt.Errorf("backup: closing band: %w", err)
	}
	return wk.stats, nil
}

type walker struct {
	archive *archive.Archive
	policy  Policy
	writer  *index.Writer

	statsMu sync.Mutex
	stats   Stats
}

func (w *walker) excluded(a apath.Apath) bool {
	rel := strings.TrimPrefix(string(a), "/")
	for _, pattern := range w.policy.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// walkChildren lists fsPath's children, sorts them by name (which, for
// single path components, agrees with apath order), and visits each in
// turn, recursing into subdirectories depth-first.
func (w *walker) walkChildren(ctx context.Context, fsPath string, ap apath.Apath) error {
	entries, err := os.ReadDir(fsPath)
	if err != nil {
		if w.policy.StrictSourceErrors {
			return fmt.Errorf("reading directory %s: %w", fsPath, err)
		}
		return nil
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		childFsPath := filepath.Join(fsPath, name)
		childApath := apath.Join(ap, name)
		if w.excluded(childApath) {
			continue
		}

		info, err := os.Lstat(childFsPath)
		if err != nil {
			if w.policy.StrictSourceErrors {
				return fmt.Errorf("statting %s: %w", childFsPath, err)
			}
			continue
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			if err := w.visitSymlink(ctx, childFsPath, childApath, info); err != nil {
				return err
			}
		case info.IsDir():
			if err := w.visitDir(ctx, childFsPath, childApath, info); err != nil {
				return err
			}
			if err := w.walkChildren(ctx, childFsPath, childApath); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if err := w.visitFile(ctx, childFsPath, childApath, info); err != nil {
				return err
			}
		default:
			// Device nodes, sockets, fifos: not modeled, silently skipped.
		}
	}
	return nil
}

func (w *walker) visitDir(ctx context.Context, fsPath string, ap apath.Apath, info os.FileInfo) error {
	w.statsMu.Lock()
	w.stats.Dirs++
	w.statsMu.Unlock()

	entry := index.Entry{
		Apath:      ap,
		Kind:       index.KindDir,
		MTime:      info.ModTime().Unix(),
		MTimeNanos: int32(info.ModTime().Nanosecond()),
		UnixMode:   uint32(info.Mode().Perm()),
	}
	applyOwner(info, &entry)
	return w.writer.Put(ctx, entry)
}

func (w *walker) visitSymlink(ctx context.Context, fsPath string, ap apath.Apath, info os.FileInfo) error {
	target, err := os.Readlink(fsPath)
	if err != nil {
		if w.policy.StrictSourceErrors {
			return fmt.Errorf("reading symlink %s: %w", fsPath, err)
		}
		return nil
	}

	w.statsMu.Lock()
	w.stats.Symlinks++
	w.statsMu.Unlock()

	entry := index.Entry{
		Apath:      ap,
		Kind:       index.KindSymlink,
		MTime:      info.ModTime().Unix(),
		MTimeNanos: int32(info.ModTime().Nanosecond()),
		UnixMode:   uint32(info.Mode().Perm()),
		Target:     target,
	}
	applyOwner(info, &entry)
	return w.writer.Put(ctx, entry)
}

// visitFile reads fsPath in ≤ TargetBlockSize chunks, dispatches each
// chunk's hash+store to a bounded worker pool, and emits the IndexEntry
// only once every block's Address is known. addrs is pre-sized and
// indexed by chunk offset, so completion order of the parallel stores
// never affects the emitted order of addresses.
func (w *walker) visitFile(ctx context.Context, fsPath string, ap apath.Apath, info os.FileInfo) error {
	f, err := os.Open(fsPath)
	if err != nil {
		if w.policy.StrictSourceErrors {
			return fmt.Errorf("opening %s: %w", fsPath, err)
		}
		return nil
	}
	defer f.Close()

	size := uint64(info.Size())
	blockSize := w.policy.TargetBlockSize
	numBlocks := 0
	if size > 0 {
		numBlocks = int((size + blockSize - 1) / blockSize)
	}
	addrs := make([]index.Address, numBlocks)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(w.policy.Threads)

	for i := 0; i < numBlocks; i++ {
		n := blockSize
		if i == numBlocks-1 {
			n = size - uint64(i)*blockSize
		}
		buf := bufpool.Get(int(n))
		if _, err := io.ReadFull(f, buf); err != nil {
			bufpool.Put(buf)
			_ = eg.Wait()
			if w.policy.StrictSourceErrors {
				return fmt.Errorf("reading %s: %w", fsPath, err)
			}
			return nil
		}

		idx := i
		eg.Go(func() error {
			defer bufpool.Put(buf)

			h, written, err := w.archive.BlockDir().Store(egCtx, buf)
			if err != nil {
				return fmt.Errorf("storing block %d of %s: %w", idx, fsPath, err)
			}
			addrs[idx] = index.Address{Hash: h, Start: 0, Length: uint64(len(buf))}

			w.statsMu.Lock()
			if written == 0 {
				w.stats.BlocksDeduped++
			} else {
				w.stats.BlocksStored++
			}
			w.statsMu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	w.statsMu.Lock()
	w.stats.Files++
	w.stats.BytesRead += size
	w.statsMu.Unlock()

	entry := index.Entry{
		Apath:      ap,
		Kind:       index.KindFile,
		MTime:      info.ModTime().Unix(),
		MTimeNanos: int32(info.ModTime().Nanosecond()),
		UnixMode:   uint32(info.Mode().Perm()),
		Size:       size,
		Addrs:      addrs,
	}
	applyOwner(info, &entry)
	return w.writer.Put(ctx, entry)
}
