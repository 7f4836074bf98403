package metrics

import "time"

// StreamEvent carries the final reader counters for one input stream.
type StreamEvent struct {
	Stream  string
	Read    int64
	Skipped int64
	Time    time.Time
}

// RunSummary captures the outcome of one pipeline run.
type RunSummary struct {
	RunID               string
	Vehicles            int
	CompletedTrips      int
	Stations            int
	PeakActiveVehicles  int
	MissingCorrelations int
	OverlapAnomalies    int
	Duration            time.Duration
	Time                time.Time
}

// MetricsSink records pipeline outcomes for observability purposes.
type MetricsSink interface {
	RecordRunSummary(s RunSummary) error
}

// StreamRecorder records per-stream ingestion counters. Sinks implement
// it optionally.
type StreamRecorder interface {
	RecordStreamStats(ev StreamEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordRunSummary(RunSummary) error   { return nil }
func (NopSink) RecordStreamStats(StreamEvent) error { return nil }
