package metrics

// MultiSink fanouts pipeline events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRunSummary forwards the summary to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordRunSummary(s RunSummary) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordRunSummary(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordStreamStats forwards stream counters to sinks that record them.
func (m *MultiSink) RecordStreamStats(ev StreamEvent) error {
	for _, sink := range m.Sinks {
		if rec, ok := sink.(StreamRecorder); ok {
			if err := rec.RecordStreamStats(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
