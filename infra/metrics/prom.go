package metrics

import (
	coremetrics "github.com/kilianp07/fleetscope/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes pipeline counters as Prometheus metrics.
type PromSink struct {
	read    *prometheus.CounterVec
	skipped *prometheus.CounterVec
	runs    prometheus.Counter
	fleet   prometheus.Gauge
	active  prometheus.Gauge
}

// NewPromSink registers pipeline metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	read := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_records_read_total",
		Help: "Well-formed records ingested per stream",
	}, []string{"stream"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_records_skipped_total",
		Help: "Malformed records skipped per stream",
	}, []string{"stream"})
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_runs_total",
		Help: "Completed pipeline runs",
	})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_vehicles_finalized",
		Help: "Vehicles finalized by the last run",
	})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_peak_active_vehicles",
		Help: "Peak active-set size of the last run",
	})

	if err := reg.Register(read); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			read = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(skipped); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			skipped = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fleet); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fleet = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(active); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			active = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	return &PromSink{read: read, skipped: skipped, runs: runs, fleet: fleet, active: active}, nil
}

// RecordRunSummary updates the run-level gauges and counters.
func (s *PromSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	s.runs.Inc()
	s.fleet.Set(float64(sum.Vehicles))
	s.active.Set(float64(sum.PeakActiveVehicles))
	return nil
}

// RecordStreamStats accumulates per-stream ingestion counters.
func (s *PromSink) RecordStreamStats(ev coremetrics.StreamEvent) error {
	s.read.WithLabelValues(ev.Stream).Add(float64(ev.Read))
	s.skipped.WithLabelValues(ev.Stream).Add(float64(ev.Skipped))
	return nil
}
