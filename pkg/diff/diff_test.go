package diff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonasBSD/conserve/pkg/apath"
	"github.com/yonasBSD/conserve/pkg/index"
)

// sliceStream is a trivial index.EntryStream over an in-memory, already
// apath-ordered slice, for testing the merge-join without needing an
// archive and band on disk.
type sliceStream []index.Entry

func (s sliceStream) Each(ctx context.Context, fn func(index.Entry) bool) error {
	for _, e := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(e) {
			return nil
		}
	}
	return nil
}

func fileEntry(a apath.Apath, mtime int64, size uint64) index.Entry {
	return index.Entry{Apath: a, Kind: index.KindFile, MTime: mtime, Size: size}
}

func TestDiffAddedRemovedModifiedUnchanged(t *testing.T) {
	from := sliceStream{
		fileEntry("/a", 1, 10),
		fileEntry("/b", 1, 10),
		fileEntry("/d", 1, 10),
	}
	to := sliceStream{
		fileEntry("/a", 1, 10),  // unchanged
		fileEntry("/c", 1, 5),   // added
		fileEntry("/d", 2, 10),  // modified (mtime differs)
	}

	var changes []Change
	err := Diff(context.Background(), from, to, func(c Change) bool {
		changes = append(changes, c)
		return true
	})
	require.NoError(t, err)

	require.Len(t, changes, 4)
	assert.Equal(t, apath.Apath("/a"), changes[0].Apath)
	assert.Equal(t, Unchanged, changes[0].Kind)
	assert.Equal(t, apath.Apath("/b"), changes[1].Apath)
	assert.Equal(t, Removed, changes[1].Kind)
	assert.Equal(t, apath.Apath("/c"), changes[2].Apath)
	assert.Equal(t, Added, changes[2].Kind)
	assert.Equal(t, apath.Apath("/d"), changes[3].Apath)
	assert.Equal(t, Modified, changes[3].Kind)
}

func TestDiffEmptyStreams(t *testing.T) {
	var changes []Change
	err := Diff(context.Background(), sliceStream{}, sliceStream{}, func(c Change) bool {
		changes = append(changes, c)
		return true
	})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDiffStopsEarly(t *testing.T) {
	from := sliceStream{fileEntry("/a", 1, 1), fileEntry("/b", 1, 1)}
	to := sliceStream{}

	var changes []Change
	err := Diff(context.Background(), from, to, func(c Change) bool {
		changes = append(changes, c)
		return false
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, apath.Apath("/a"), changes[0].Apath)
}
