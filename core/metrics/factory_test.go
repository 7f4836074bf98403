package metrics

import (
	"testing"

	"github.com/kilianp07/fleetscope/core/factory"
)

type countingSink struct {
	runs    int
	streams int
}

func (c *countingSink) RecordRunSummary(RunSummary) error   { c.runs++; return nil }
func (c *countingSink) RecordStreamStats(StreamEvent) error { c.streams++; return nil }

func TestNewMetricsSinkEmpty(t *testing.T) {
	s, err := NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
}

func TestNewMetricsSinkUnknown(t *testing.T) {
	if _, err := NewMetricsSink([]factory.ModuleConfig{{Type: "does-not-exist"}}); err == nil {
		t.Fatal("unknown sink type must fail")
	}
}

func TestMultiSinkFanout(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, b, NopSink{})
	if err := m.RecordRunSummary(RunSummary{Vehicles: 1}); err != nil {
		t.Fatalf("run summary: %v", err)
	}
	if err := m.RecordStreamStats(StreamEvent{Stream: "fcd"}); err != nil {
		t.Fatalf("stream stats: %v", err)
	}
	if a.runs != 1 || b.runs != 1 || a.streams != 1 || b.streams != 1 {
		t.Fatalf("fanout incomplete: %+v %+v", a, b)
	}
}
