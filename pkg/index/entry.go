// Package index implements ordered, chunked persistence of IndexEntry
// records into numbered hunks within a band.
package index

import (
	"context"

	"github.com/yonasBSD/conserve/pkg/apath"
	"github.com/yonasBSD/conserve/pkg/hash"
)

// EntryStream is satisfied by anything that can replay a sequence of Entry
// records in apath order: a plain *Reader over one band's hunks, or a
// stitched merge of a partial band with its predecessor. Downstream
// consumers (restore, validate, diff) depend only on this interface.
type EntryStream interface {
	Each(ctx context.Context, fn func(Entry) bool) error
}

// Kind identifies the filesystem object type an IndexEntry describes.
type Kind string

const (
	KindFile    Kind = "File"
	KindDir     Kind = "Dir"
	KindSymlink Kind = "Symlink"
)

// Address is a (hash, start, length) slice into a stored block.
type Address struct {
	Hash   hash.BlockHash `json:"hash"`
	Start  uint64         `json:"start"`
	Length uint64         `json:"len"`
}

// Entry is one record of the per-band index: the complete metadata for a
// single filesystem object as it existed at backup time.
type Entry struct {
	Apath apath.Apath `json:"apath"`
	Kind  Kind        `json:"kind"`

	MTime      int64  `json:"mtime"`
	MTimeNanos int32  `json:"mtime_nanos,omitempty"`
	UnixMode   uint32 `json:"unix_mode"`
	User       string `json:"user,omitempty"`
	Group      string `json:"group,omitempty"`
	OwnerUID   *uint32 `json:"owner_uid,omitempty"`
	OwnerGID   *uint32 `json:"owner_gid,omitempty"`

	// Size and Addrs are populated only when Kind == KindFile.
	Size  uint64    `json:"size,omitempty"`
	Addrs []Address `json:"addrs,omitempty"`

	// Target is populated only when Kind == KindSymlink.
	Target string `json:"target,omitempty"`
}
