// Package backup implements the walk-chunk-store-index pipeline that turns
// a source directory tree into a new band in an archive.
package backup

import "runtime"

// DefaultTargetBlockSize is the block size used when Policy.TargetBlockSize
// is left at zero.
const DefaultTargetBlockSize = 1 << 20 // 1 MiB

// Policy is the immutable options record controlling a backup run.
type Policy struct {
	// Exclude lists doublestar glob patterns matched against the
	// slash-stripped apath of each candidate entry; a match excludes that
	// entry and, for directories, its whole subtree.
	Exclude []string

	// MaxEntriesPerHunk bounds how many IndexEntry records accumulate in
	// the writer's buffer before a hunk is flushed. Zero uses the index
	// package's default.
	MaxEntriesPerHunk int

	// TargetBlockSize is the maximum uncompressed size of a stored block.
	// Zero uses DefaultTargetBlockSize.
	TargetBlockSize uint64

	// Threads bounds the worker pool used to hash and store a file's
	// blocks concurrently. Zero or negative uses runtime.NumCPU().
	Threads int

	// StrictSourceErrors turns source-read errors (permission denied,
	// vanished files, broken symlinks) into a failed backup instead of a
	// skipped entry.
	StrictSourceErrors bool

	// RestoreOwnership is not read by Run; the restore pipeline takes its
	// setting from restore.Options.RestoreOwnership instead.
	RestoreOwnership bool
}

func (p Policy) withDefaults() Policy {
	if p.TargetBlockSize == 0 {
		p.TargetBlockSize = DefaultTargetBlockSize
	}
	if p.Threads <= 0 {
		p.Threads = runtime.NumCPU()
	}
	return p
}

// Stats summarizes a completed, or partially completed, backup run.
type Stats struct {
	Dirs, Files, Symlinks int
	BytesRead             uint64
	BlocksStored          int
	BlocksDeduped         int
}
