// Package blockdir implements the archive's content-addressed block store:
// the "d/" subtree, its two-hex-char fan-out layout, and block-level
// deduplication backed by a bounded presence cache.
package blockdir

import (
	"context"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/codec"
	"github.com/yonasBSD/conserve/pkg/hash"
	"github.com/yonasBSD/conserve/pkg/transport"
)

// PresenceCacheSize is the default bound on the in-memory "known present"
// cache used to short-circuit redundant existence checks during backup.
const PresenceCacheSize = 10_000

// BlockDir is the content-addressed block store rooted at an archive's "d/"
// directory. It is safe for concurrent use by multiple backup workers.
type BlockDir struct {
	tr    transport.Transport
	cache *lru.Cache[hash.BlockHash, struct{}]
	mu    sync.Mutex
}

// New returns a BlockDir backed by tr (which should already be rooted at
// the archive's "d/" directory) with a presence cache bounded to
// cacheSize entries. A cacheSize of 0 uses PresenceCacheSize.
func New(tr transport.Transport, cacheSize int) (*BlockDir, error) {
	if cacheSize <= 0 {
		cacheSize = PresenceCacheSize
	}
	cache, err := lru.New[hash.BlockHash, struct{}](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("blockdir: creating presence cache: %w", err)
	}
	return &BlockDir{tr: tr, cache: cache}, nil
}

func pathFor(h hash.BlockHash) string {
	return h.Dir() + "/" + string(h)
}

func (b *BlockDir) cacheHas(h hash.BlockHash) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.cache.Get(h)
	return ok
}

func (b *BlockDir) cacheAdd(h hash.BlockHash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache.Add(h, struct{}{})
}

// Store compresses and writes data under its BLAKE2b-256 hash, unless a
// block with that hash is already present, and returns the hash and the
// compressed length written, or 0 when the block was already present.
func (b *BlockDir) Store(ctx context.Context, data []byte) (hash.BlockHash, int, error) {
	h := hash.Sum(data)

	if b.cacheHas(h) {
		return h, 0, nil
	}

	path := pathFor(h)
	exists, err := b.tr.Exists(ctx, path)
	if err != nil {
		return "", 0, fmt.Errorf("blockdir: checking existence of %s: %w", h, err)
	}
	if exists {
		b.cacheAdd(h)
		return h, 0, nil
	}

	compressed := codec.Compress(data)
	if err := b.tr.Write(ctx, path, compressed); err != nil {
		return "", 0, fmt.Errorf("blockdir: writing block %s: %w", h, err)
	}
	b.cacheAdd(h)
	return h, len(compressed), nil
}

// Get reads, decompresses, and verifies the block named by h, then returns
// the byte range [start, start+length).
func (b *BlockDir) Get(ctx context.Context, h hash.BlockHash, start, length uint64) ([]byte, error) {
	path := pathFor(h)
	compressed, err := b.tr.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("blockdir: reading block %s: %w", h, err)
	}

	data, err := codec.Decompress(compressed)
	if err != nil {
		return nil, archiveerror.BlockCorrupt("Get", string(h), string(h), "decompress failed: "+err.Error())
	}

	actual := hash.Sum(data)
	if actual != h {
		return nil, archiveerror.BlockCorrupt("Get", string(h), string(h), string(actual))
	}

	if start+length > uint64(len(data)) {
		return nil, archiveerror.AddressOutOfRange("Get", start, length, uint64(len(data)))
	}
	return data[start : start+length], nil
}

// Contains reports whether a block with hash h is present, consulting the
// presence cache before falling back to a transport existence check.
func (b *BlockDir) Contains(ctx context.Context, h hash.BlockHash) (bool, error) {
	if b.cacheHas(h) {
		return true, nil
	}
	exists, err := b.tr.Exists(ctx, pathFor(h))
	if err != nil {
		return false, fmt.Errorf("blockdir: checking existence of %s: %w", h, err)
	}
	if exists {
		b.cacheAdd(h)
	}
	return exists, nil
}

// BlockNames returns every valid BlockHash present in the blockdir, by
// listing the fan-out directories and filtering to well-formed hex names.
func (b *BlockDir) BlockNames(ctx context.Context) ([]hash.BlockHash, error) {
	_, dirs, err := b.tr.ListDir(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("blockdir: listing fan-out directories: %w", err)
	}

	var names []hash.BlockHash
	for _, dir := range dirs {
		if len(dir) != 2 || !isHex(dir) {
			continue
		}
		files, _, err := b.tr.ListDir(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("blockdir: listing bucket %s: %w", dir, err)
		}
		for _, name := range files {
			if hash.Valid(name) && strings.HasPrefix(name, dir) {
				names = append(names, hash.BlockHash(name))
			}
		}
	}
	return names, nil
}

// Validate downloads, decompresses, and re-hashes the block named h,
// reporting the uncompressed length and whether the hash matched.
func (b *BlockDir) Validate(ctx context.Context, h hash.BlockHash) (uncompressedLen int, ok bool, err error) {
	compressed, err := b.tr.Read(ctx, pathFor(h))
	if err != nil {
		return 0, false, fmt.Errorf("blockdir: reading block %s: %w", h, err)
	}
	data, err := codec.Decompress(compressed)
	if err != nil {
		return 0, false, nil
	}
	return len(data), hash.Sum(data) == h, nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
