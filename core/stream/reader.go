package stream

import (
	"context"

	"github.com/kilianp07/fleetscope/core/telemetry"
)

// Stats counts the records a reader has produced and skipped.
type Stats struct {
	Read    int64
	Skipped int64
}

// Reader produces a lazy, timestamp-ordered sequence of records from one
// telemetry stream. Next returns io.EOF once the stream is exhausted and
// a CorruptError when the stream can no longer be trusted. Readers are
// forward-only and not restartable.
type Reader interface {
	Next(ctx context.Context) (telemetry.Record, error)
	Kind() telemetry.Kind
	Stats() Stats
	Close() error
}
