package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the backup, restore,
// validate, and diff pipelines. Use these keys consistently across all log
// statements so log aggregation and querying stays uniform.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Pipeline & Archive
	// ========================================================================
	KeyOp          = "op"           // Pipeline operation: backup, restore, validate, diff
	KeyArchivePath = "archive_path" // Archive root (local path or s3://bucket/prefix)
	KeyBandID      = "band_id"      // Band being written or read, e.g. "b0003"
	KeyApath       = "apath"        // Archive path of the entry being processed

	// ========================================================================
	// File System Operations
	// ========================================================================
	KeyPath   = "path"   // Source or destination filesystem path
	KeyKind   = "kind"   // Entry kind: file, dir, symlink
	KeySize   = "size"   // File size in bytes
	KeyMode   = "mode"   // Unix file mode/permissions
	KeyTarget = "target" // Symlink target

	// ========================================================================
	// Block & Index Operations
	// ========================================================================
	KeyBlockHash    = "block_hash"    // Content hash of a block
	KeyBlockLength  = "block_length"  // Compressed block length on disk
	KeyHunkNum      = "hunk_num"      // Index hunk number
	KeyEntryCount   = "entry_count"   // Number of entries in a hunk or report
	KeyBytesRead    = "bytes_read"    // Actual bytes read from source
	KeyBytesWritten = "bytes_written" // Actual bytes written to destination
	KeyDeduped      = "deduped"       // Block was already present (dedup hit)

	// ========================================================================
	// Transport
	// ========================================================================
	KeyBucket     = "bucket"      // Cloud bucket name (S3)
	KeyKey        = "key"         // Object key in cloud storage
	KeyRegion     = "region"      // Cloud region
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Op returns a slog.Attr for the pipeline operation name.
func Op(op string) slog.Attr {
	return slog.String(KeyOp, op)
}

// ArchivePath returns a slog.Attr for the archive root.
func ArchivePath(p string) slog.Attr {
	return slog.String(KeyArchivePath, p)
}

// BandID returns a slog.Attr for the band being written or read.
func BandID(id string) slog.Attr {
	return slog.String(KeyBandID, id)
}

// Apath returns a slog.Attr for the archive path of the entry in flight.
func Apath(a string) slog.Attr {
	return slog.String(KeyApath, a)
}

// Path returns a slog.Attr for a source or destination filesystem path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Kind returns a slog.Attr for an entry kind (file, dir, symlink).
func Kind(k string) slog.Attr {
	return slog.String(KeyKind, k)
}

// Size returns a slog.Attr for a file size in bytes.
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// Mode returns a slog.Attr for a Unix file mode.
func Mode(m uint32) slog.Attr {
	return slog.Any(KeyMode, m)
}

// Target returns a slog.Attr for a symlink target.
func Target(t string) slog.Attr {
	return slog.String(KeyTarget, t)
}

// BlockHash returns a slog.Attr for a block's content hash.
func BlockHash(h string) slog.Attr {
	return slog.String(KeyBlockHash, h)
}

// BlockLength returns a slog.Attr for a block's length on disk.
func BlockLength(n int) slog.Attr {
	return slog.Int(KeyBlockLength, n)
}

// HunkNum returns a slog.Attr for an index hunk number.
func HunkNum(n int) slog.Attr {
	return slog.Int(KeyHunkNum, n)
}

// EntryCount returns a slog.Attr for a number of entries.
func EntryCount(n int) slog.Attr {
	return slog.Int(KeyEntryCount, n)
}

// BytesRead returns a slog.Attr for actual bytes read.
func BytesRead(n uint64) slog.Attr {
	return slog.Uint64(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written.
func BytesWritten(n uint64) slog.Attr {
	return slog.Uint64(KeyBytesWritten, n)
}

// Deduped returns a slog.Attr for whether a block store call was a dedup hit.
func Deduped(d bool) slog.Attr {
	return slog.Bool(KeyDeduped, d)
}

// Bucket returns a slog.Attr for a cloud bucket name.
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an object key in cloud storage.
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Region returns a slog.Attr for a cloud region.
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempts.
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
