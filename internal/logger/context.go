package logger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds operation-scoped logging context threaded through a
// single backup, restore, validate, or diff pipeline run.
type LogContext struct {
	TraceID     string    // OpenTelemetry trace ID
	SpanID      string    // OpenTelemetry span ID
	Op          string    // Pipeline operation (Backup, Restore, Validate, Diff)
	ArchivePath string    // Archive root (local path or s3://bucket/prefix)
	BandID      string    // Band being written or read, e.g. "b0003"
	Apath       string    // Archive path of the entry currently being processed
	StartTime   time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a pipeline run against
// archivePath. TraceID identifies this run (one backup/restore/validate/diff
// invocation) across every log line it produces, so concurrent runs against
// the same archive can be told apart in aggregated log output.
func NewLogContext(op, archivePath string) *LogContext {
	return &LogContext{
		TraceID:     uuid.NewString(),
		Op:          op,
		ArchivePath: archivePath,
		StartTime:   time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:     lc.TraceID,
		SpanID:      lc.SpanID,
		Op:          lc.Op,
		ArchivePath: lc.ArchivePath,
		BandID:      lc.BandID,
		Apath:       lc.Apath,
		StartTime:   lc.StartTime,
	}
}

// WithBand returns a copy with the band ID set
func (lc *LogContext) WithBand(bandID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.BandID = bandID
	}
	return clone
}

// WithApath returns a copy with the current archive path set
func (lc *LogContext) WithApath(apath string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Apath = apath
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
