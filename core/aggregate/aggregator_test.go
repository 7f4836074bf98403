package aggregate

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetscope/core/diag"
	"github.com/kilianp07/fleetscope/core/telemetry"
	"github.com/kilianp07/fleetscope/infra/logger"
)

func feed(t *testing.T, a *Aggregator, recs ...telemetry.Record) {
	t.Helper()
	for _, rec := range recs {
		if err := a.Consume(rec); err != nil {
			t.Fatalf("consume %T: %v", rec, err)
		}
	}
}

func TestVehicleTripRollup(t *testing.T) {
	d := diag.New()
	a := New(d, logger.NopLogger{})
	feed(t, a,
		telemetry.VehicleSample{VehicleID: "V1", VehicleType: "ev_sedan", Timestamp: 0, Speed: 0},
		telemetry.VehicleSample{VehicleID: "V1", Timestamp: 1, Speed: 10},
		telemetry.VehicleSample{VehicleID: "V1", Timestamp: 2, Speed: 20},
		telemetry.TripSummary{VehicleID: "V1", Depart: 0, Arrival: 2, Duration: 2, DistanceM: 30},
	)
	aggs := a.Finalize()
	if len(aggs) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(aggs))
	}
	v := aggs[0]
	if v.Speed == nil {
		t.Fatal("expected speed stats")
	}
	if v.Speed.Mean != 10 || v.Speed.Max != 20 || v.Speed.Min != 0 || v.Samples != 3 {
		t.Fatalf("unexpected speed stats: %+v", v.Speed)
	}
	if !v.HasTrip || v.DurationS != 2 || v.DistanceM != 30 {
		t.Fatalf("unexpected trip fields: %+v", v)
	}
	if v.VehicleType != "ev_sedan" {
		t.Fatalf("vehicle type not carried: %q", v.VehicleType)
	}
	if v.NoData || len(d.MissingCorrelation) != 0 {
		t.Fatalf("unexpected missing correlation: %+v", d.MissingCorrelation)
	}
}

func TestMissingCorrelation(t *testing.T) {
	d := diag.New()
	a := New(d, logger.NopLogger{})
	feed(t, a,
		telemetry.BatteryState{VehicleID: "V4", Timestamp: 1, SoC: 0.7, ConsumedWh: 50},
		telemetry.BatteryState{VehicleID: "V4", Timestamp: 2, SoC: 0.6, ConsumedWh: 90},
	)
	aggs := a.Finalize()
	if len(aggs) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(aggs))
	}
	v := aggs[0]
	if !v.NoData || v.Speed != nil {
		t.Fatalf("expected NoData without samples: %+v", v)
	}
	if v.FinalSoC != 0.6 || v.EnergyConsumedWh != 90 {
		t.Fatalf("battery fields wrong: %+v", v)
	}
	if len(d.MissingCorrelation) != 1 || d.MissingCorrelation[0] != "V4" {
		t.Fatalf("expected V4 missing, got %v", d.MissingCorrelation)
	}
}

func TestTripOnlyVehicleIsNoData(t *testing.T) {
	d := diag.New()
	a := New(d, logger.NopLogger{})
	feed(t, a, telemetry.TripSummary{VehicleID: "V9", Depart: 0, Arrival: 5, Duration: 5, DistanceM: 100})
	aggs := a.Finalize()
	if len(aggs) != 1 || !aggs[0].NoData {
		t.Fatalf("expected NoData trip-only aggregate, got %+v", aggs)
	}
	if aggs[0].DistanceM != 100 {
		t.Fatalf("trip fields must still be reported: %+v", aggs[0])
	}
}

func TestEnergyDerivations(t *testing.T) {
	d := diag.New()
	a := New(d, logger.NopLogger{})
	feed(t, a,
		telemetry.VehicleSample{VehicleID: "V1", Timestamp: 0, Speed: 10},
		telemetry.BatteryState{VehicleID: "V1", Timestamp: 1, SoC: 0.9, ConsumedWh: 100, RegeneratedWh: 20},
		telemetry.BatteryState{VehicleID: "V1", Timestamp: 2, SoC: 0.8, ConsumedWh: 300, RegeneratedWh: 30},
		telemetry.ChargingEvent{StationID: "S1", VehicleID: "V1", Begin: 3, End: 5, EnergyWh: 40},
		telemetry.TripSummary{VehicleID: "V1", Depart: 0, Arrival: 6, Duration: 6, DistanceM: 2000},
	)
	v := a.Finalize()[0]
	if v.NetEnergyWh != 270 {
		t.Fatalf("net energy: expected 270, got %v", v.NetEnergyWh)
	}
	if v.EfficiencyWhPerKm != 135 {
		t.Fatalf("efficiency: expected 135 Wh/km, got %v", v.EfficiencyWhPerKm)
	}
	if v.RegenEfficiencyPct != 10 {
		t.Fatalf("regen: expected 10%%, got %v", v.RegenEfficiencyPct)
	}
	if v.ChargingSessions != 1 || v.ChargingEnergyWh != 40 {
		t.Fatalf("charging fields wrong: %+v", v)
	}
	if v.FinalSoC != 0.8 {
		t.Fatalf("final SoC: expected 0.8, got %v", v.FinalSoC)
	}
}

func TestTripReusesIdentifier(t *testing.T) {
	d := diag.New()
	a := New(d, logger.NopLogger{})
	feed(t, a,
		telemetry.VehicleSample{VehicleID: "V1", Timestamp: 0, Speed: 5},
		telemetry.TripSummary{VehicleID: "V1", Depart: 0, Arrival: 1, Duration: 1, DistanceM: 5},
		telemetry.VehicleSample{VehicleID: "V1", Timestamp: 10, Speed: 15},
		telemetry.TripSummary{VehicleID: "V1", Depart: 10, Arrival: 11, Duration: 1, DistanceM: 15},
	)
	aggs := a.Finalize()
	if len(aggs) != 2 {
		t.Fatalf("reused id must yield two aggregates, got %d", len(aggs))
	}
	if aggs[0].Speed.Mean != 5 || aggs[1].Speed.Mean != 15 {
		t.Fatalf("aggregates mixed across trips: %+v", aggs)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	a := New(diag.New(), logger.NopLogger{})
	feed(t, a, telemetry.VehicleSample{VehicleID: "V1", Timestamp: 0, Speed: 5})
	first := a.Finalize()
	second := a.Finalize()
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("finalize not idempotent: %d vs %d", len(first), len(second))
	}
	if err := a.Consume(telemetry.VehicleSample{VehicleID: "V2"}); err == nil {
		t.Fatal("consume after finalize must fail")
	}
}

func TestWelfordMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var s SpeedStats
	xs := make([]float64, 1000)
	for i := range xs {
		xs[i] = rng.Float64() * 40
		s.Add(xs[i])
	}
	if diff := math.Abs(s.Mean - stat.Mean(xs, nil)); diff > 1e-9 {
		t.Fatalf("mean drift %v", diff)
	}
	if diff := math.Abs(s.Variance() - stat.Variance(xs, nil)); diff > 1e-9 {
		t.Fatalf("variance drift %v", diff)
	}
}

func TestVarianceBelowTwoSamples(t *testing.T) {
	var s SpeedStats
	s.Add(3)
	if !math.IsNaN(s.Variance()) {
		t.Fatalf("expected NaN variance for one sample, got %v", s.Variance())
	}
}

func TestFleetAndTypeRollups(t *testing.T) {
	mk := func(id, typ string, mean, dist float64) VehicleAggregate {
		s := SpeedStats{}
		s.Add(mean)
		s.Add(mean)
		return VehicleAggregate{VehicleID: id, VehicleType: typ, Speed: &s, HasTrip: true, DistanceM: dist}
	}
	aggs := []VehicleAggregate{
		mk("a", "ev_sedan", 10, 100),
		mk("b", "ev_sedan", 20, 200),
		mk("c", "", 30, 300),
	}
	f := Fleet(aggs, 50)
	if f.Vehicles != 3 || f.CompletedTrips != 3 || f.TotalDistanceM != 600 || f.SimEndS != 50 {
		t.Fatalf("unexpected fleet stats: %+v", f)
	}
	if f.MeanSpeed != 20 {
		t.Fatalf("expected mean speed 20, got %v", f.MeanSpeed)
	}

	types := ByType(aggs)
	if len(types) != 2 {
		t.Fatalf("expected 2 type groups, got %d", len(types))
	}
	var total int
	for _, ts := range types {
		total += ts.Vehicles
	}
	if total != len(aggs) {
		t.Fatalf("type partition lost vehicles: %d != %d", total, len(aggs))
	}
	if types[1].VehicleType != "unknown" || types[1].Vehicles != 1 {
		t.Fatalf("untyped vehicle not grouped under unknown: %+v", types)
	}
}

func TestMaxTimeUsesIntervalEnd(t *testing.T) {
	a := New(diag.New(), logger.NopLogger{})
	feed(t, a,
		telemetry.VehicleSample{VehicleID: "V1", Timestamp: 3, Speed: 1},
		telemetry.TripSummary{VehicleID: "V1", Depart: 0, Arrival: 9, Duration: 9, DistanceM: 10},
	)
	if a.MaxTime() != 9 {
		t.Fatalf("expected max time 9, got %v", a.MaxTime())
	}
}
