// Package transport defines the byte-level object I/O abstraction that the
// archive, blockdir, and index layers build on. Implementations exist for a
// local filesystem root and for an S3-like object store; neither knows
// anything about archive semantics.
package transport

import "context"

// Transport is the narrow collaborator interface every Conserve storage
// operation goes through. All methods are synchronous from the caller's
// perspective, even when an implementation (e.g. S3) suspends internally on
// network round-trips.
type Transport interface {
	// ListDir returns the non-recursive listing of path: file names and
	// subdirectory names, each relative to path. Returns a NotFound
	// ArchiveError if path does not exist.
	ListDir(ctx context.Context, path string) (files, dirs []string, err error)

	// Read returns the whole contents of the object at path.
	Read(ctx context.Context, path string) ([]byte, error)

	// ReadRange returns length bytes starting at offset within the object
	// at path.
	ReadRange(ctx context.Context, path string, offset, length int64) ([]byte, error)

	// Write atomically creates or replaces the object at path with data.
	// Partial writes are never observable by a concurrent reader.
	Write(ctx context.Context, path string, data []byte) error

	// CreateDir ensures path exists as a directory. It is idempotent and a
	// no-op on object stores that have no directory concept.
	CreateDir(ctx context.Context, path string) error

	// RemoveFile deletes the single object at path.
	RemoveFile(ctx context.Context, path string) error

	// RemoveDirAll recursively deletes everything under path.
	RemoveDirAll(ctx context.Context, path string) error

	// Exists reports whether an object or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// SubTransport returns a Transport rooted at path relative to this one.
	SubTransport(path string) Transport
}
