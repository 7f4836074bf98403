package stream

import (
	"errors"
	"fmt"

	"github.com/kilianp07/fleetscope/core/telemetry"
)

// ErrCorrupt marks a stream-level fault. It aborts the whole ingestion,
// unlike per-record malformations which are skipped and counted.
var ErrCorrupt = errors.New("stream corrupt")

// MalformedError describes a single record that violates its schema.
// Such records are skipped and counted at the reader boundary.
type MalformedError struct {
	Stream  telemetry.Kind
	Element string
	Reason  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s record <%s>: %s", e.Stream, e.Element, e.Reason)
}

// CorruptError reports a stream that can no longer be trusted: too many
// malformed records, a timestamp regression or unreadable framing.
type CorruptError struct {
	Stream telemetry.Kind
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("%s stream corrupt: %s", e.Stream, e.Reason)
}

func (e *CorruptError) Unwrap() error { return ErrCorrupt }

func corruptf(kind telemetry.Kind, format string, args ...any) error {
	return &CorruptError{Stream: kind, Reason: fmt.Sprintf(format, args...)}
}
