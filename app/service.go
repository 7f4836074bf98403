// Package app wires the telemetry pipeline: readers feed the
// correlation index, correlated records feed the aggregators, and the
// assembled report is exported once the input is exhausted.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kilianp07/fleetscope/config"
	"github.com/kilianp07/fleetscope/core/aggregate"
	"github.com/kilianp07/fleetscope/core/correlate"
	"github.com/kilianp07/fleetscope/core/diag"
	coremetrics "github.com/kilianp07/fleetscope/core/metrics"
	"github.com/kilianp07/fleetscope/core/report"
	"github.com/kilianp07/fleetscope/core/station"
	"github.com/kilianp07/fleetscope/core/stream"
	"github.com/kilianp07/fleetscope/core/telemetry"
	"github.com/kilianp07/fleetscope/infra/logger"
	inframetrics "github.com/kilianp07/fleetscope/infra/metrics"
	"github.com/kilianp07/fleetscope/pkg/export"
)

// Service runs one analysis over the configured streams.
type Service struct {
	cfg  *config.Config
	log  logger.Logger
	sink coremetrics.MetricsSink
}

func New(cfg *config.Config) (*Service, error) {
	if err := inframetrics.RegisterBuiltins(); err != nil {
		return nil, fmt.Errorf("register sinks: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	return &Service{cfg: cfg, log: logger.New("pipeline"), sink: sink}, nil
}

// Run drives the whole pipeline. On stream corruption or cancellation it
// unwinds without writing a report: partial aggregates are discarded,
// only the error and the counters collected so far surface.
func (s *Service) Run(ctx context.Context) error {
	start := time.Now()
	opts := stream.Options{MalformedThreshold: s.cfg.Ingest.MalformedThreshold}

	var readers []stream.Reader
	defer func() {
		for _, r := range readers {
			if cerr := r.Close(); cerr != nil {
				s.log.Errorf("close %s reader: %v", r.Kind(), cerr)
			}
		}
	}()
	for _, in := range []struct {
		kind telemetry.Kind
		path string
	}{
		{telemetry.KindVehicleSample, s.cfg.Streams.FCD},
		{telemetry.KindBatteryState, s.cfg.Streams.Battery},
		{telemetry.KindTripSummary, s.cfg.Streams.TripInfo},
		{telemetry.KindChargingEvent, s.cfg.Streams.Charging},
	} {
		if in.path == "" {
			continue
		}
		r, err := stream.Open(in.kind, in.path, opts)
		if err != nil {
			return fmt.Errorf("open %s stream: %w", in.kind, err)
		}
		if s.cfg.Ingest.BufferSize > 0 {
			readers = append(readers, stream.NewBuffered(r, s.cfg.Ingest.BufferSize))
		} else {
			readers = append(readers, r)
		}
	}

	diagnostics := diag.New()
	idx := correlate.New(readers...)
	agg := aggregate.New(diagnostics, s.log)
	trk := station.NewTracker(diagnostics)

	for {
		rec, err := idx.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logPartial(readers)
			return fmt.Errorf("correlate: %w", err)
		}
		if ev, ok := rec.(telemetry.ChargingEvent); ok {
			trk.Consume(ev)
		}
		if err := agg.Consume(rec); err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}
	}

	vehicles := agg.Finalize()
	stations := trk.Finalize()
	for _, r := range readers {
		st := r.Stats()
		diagnostics.SetStreamStats(r.Kind().String(), diag.StreamStats{Read: st.Read, Skipped: st.Skipped})
	}
	diagnostics.PeakActiveVehicles = idx.PeakActive()

	rep := report.Assemble(vehicles, stations, agg.MaxTime(), diagnostics)
	if err := s.export(rep); err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	s.record(rep, time.Since(start))

	s.log.Infof("run %s: %d vehicles, %d stations, %d skipped records in %s",
		rep.RunID, len(rep.Vehicles), len(rep.Stations),
		rep.Diagnostics.SkippedTotal(), time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Service) export(rep *report.Report) error {
	var w io.Writer = os.Stdout
	if s.cfg.Report.Destination != "-" {
		f, err := os.Create(s.cfg.Report.Destination)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	switch s.cfg.Report.Format {
	case "json":
		return export.WriteJSON(w, rep)
	case "csv":
		return export.WriteCSV(w, rep)
	default:
		return export.WriteText(w, rep)
	}
}

func (s *Service) record(rep *report.Report, dur time.Duration) {
	now := time.Now()
	if rec, ok := s.sink.(coremetrics.StreamRecorder); ok {
		for name, st := range rep.Diagnostics.Streams {
			ev := coremetrics.StreamEvent{Stream: name, Read: st.Read, Skipped: st.Skipped, Time: now}
			if err := rec.RecordStreamStats(ev); err != nil {
				s.log.Errorf("record stream stats: %v", err)
			}
		}
	}
	sum := coremetrics.RunSummary{
		RunID:               rep.RunID,
		Vehicles:            len(rep.Vehicles),
		CompletedTrips:      rep.Fleet.CompletedTrips,
		Stations:            len(rep.Stations),
		PeakActiveVehicles:  rep.Diagnostics.PeakActiveVehicles,
		MissingCorrelations: len(rep.Diagnostics.MissingCorrelation),
		OverlapAnomalies:    len(rep.Diagnostics.Overlaps),
		Duration:            dur,
		Time:                now,
	}
	if err := s.sink.RecordRunSummary(sum); err != nil {
		s.log.Errorf("record run summary: %v", err)
	}
}

// logPartial surfaces the counters collected before an abort, so the
// cause of a corrupt run is diagnosable without a report.
func (s *Service) logPartial(readers []stream.Reader) {
	fields := map[string]any{}
	for _, r := range readers {
		st := r.Stats()
		fields[r.Kind().String()+"_read"] = st.Read
		fields[r.Kind().String()+"_skipped"] = st.Skipped
	}
	s.log.Debugw("partial stream counters at abort", fields)
}
