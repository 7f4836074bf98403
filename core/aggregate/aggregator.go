// Package aggregate turns the correlated record sequence into immutable
// per-vehicle, per-type and fleet-wide rollups.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/kilianp07/fleetscope/core/diag"
	"github.com/kilianp07/fleetscope/core/logger"
	"github.com/kilianp07/fleetscope/core/telemetry"
)

// Aggregator consumes the correlated sequence and maintains one open
// aggregate per (vehicle, open trip). A TripSummary finalizes and evicts
// the vehicle's state; anything still open when the input is exhausted
// is finalized by Finalize. Vehicles finalized without a single position
// sample are flagged NoData and reported as missing correlations.
type Aggregator struct {
	open     map[string]*openAggregate
	done     []VehicleAggregate
	diags    *diag.Diagnostics
	log      logger.Logger
	maxTime  float64
	finished bool
}

type openAggregate struct {
	agg   VehicleAggregate
	speed SpeedStats
}

func New(d *diag.Diagnostics, log logger.Logger) *Aggregator {
	return &Aggregator{
		open:  make(map[string]*openAggregate),
		diags: d,
		log:   log,
	}
}

// Consume folds one correlated record into the open aggregates.
func (a *Aggregator) Consume(rec telemetry.Record) error {
	if a.finished {
		return fmt.Errorf("aggregator already finalized")
	}
	a.observeTime(rec)
	switch r := rec.(type) {
	case telemetry.VehicleSample:
		o := a.get(r.VehicleID)
		o.speed.Add(r.Speed)
		o.agg.Samples++
		if o.agg.VehicleType == "" {
			o.agg.VehicleType = r.VehicleType
		}
	case telemetry.BatteryState:
		o := a.get(r.VehicleID)
		o.agg.BatterySamples++
		o.agg.FinalSoC = r.SoC
		// Cumulative counters: the latest observation carries the total.
		if r.ConsumedWh > o.agg.EnergyConsumedWh {
			o.agg.EnergyConsumedWh = r.ConsumedWh
		}
		if r.RegeneratedWh > o.agg.EnergyRegeneratedWh {
			o.agg.EnergyRegeneratedWh = r.RegeneratedWh
		}
	case telemetry.ChargingEvent:
		o := a.get(r.VehicleID)
		o.agg.ChargingSessions++
		o.agg.ChargingEnergyWh += r.EnergyWh
	case telemetry.TripSummary:
		o := a.get(r.VehicleID)
		o.agg.HasTrip = true
		o.agg.Depart = r.Depart
		o.agg.Arrival = r.Arrival
		o.agg.DurationS = r.Duration
		o.agg.DistanceM = r.DistanceM
		o.agg.WaitingS = r.WaitingS
		if o.agg.VehicleType == "" {
			o.agg.VehicleType = r.VehicleType
		}
		a.finalize(o)
		delete(a.open, r.VehicleID)
	default:
		return fmt.Errorf("unexpected record kind %s", rec.Kind())
	}
	return nil
}

// Finalize closes every aggregate still open and returns all finalized
// aggregates ordered by vehicle identity. The aggregator is unusable
// afterwards.
func (a *Aggregator) Finalize() []VehicleAggregate {
	if !a.finished {
		ids := make([]string, 0, len(a.open))
		for id := range a.open {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			a.finalize(a.open[id])
			delete(a.open, id)
		}
		a.finished = true
		sort.SliceStable(a.done, func(i, j int) bool {
			return a.done[i].VehicleID < a.done[j].VehicleID
		})
	}
	return a.done
}

// MaxTime is the largest timestamp observed across all records.
func (a *Aggregator) MaxTime() float64 { return a.maxTime }

func (a *Aggregator) get(vehicleID string) *openAggregate {
	o, ok := a.open[vehicleID]
	if !ok {
		o = &openAggregate{agg: VehicleAggregate{VehicleID: vehicleID}}
		a.open[vehicleID] = o
	}
	return o
}

func (a *Aggregator) finalize(o *openAggregate) {
	if o.speed.Count > 0 {
		s := o.speed
		o.agg.Speed = &s
		if s.Count >= 2 {
			o.agg.SpeedStdDev = s.StdDev()
		}
	} else {
		o.agg.NoData = true
		a.diags.AddMissing(o.agg.VehicleID)
		a.log.Warnf("vehicle %s has no position samples", o.agg.VehicleID)
	}
	o.agg.NetEnergyWh = o.agg.EnergyConsumedWh - o.agg.EnergyRegeneratedWh
	if o.agg.DistanceM > 0 {
		o.agg.EfficiencyWhPerKm = o.agg.NetEnergyWh / (o.agg.DistanceM / 1000)
	}
	if o.agg.EnergyConsumedWh > 0 {
		o.agg.RegenEfficiencyPct = o.agg.EnergyRegeneratedWh / o.agg.EnergyConsumedWh * 100
	}
	a.done = append(a.done, o.agg)
}

func (a *Aggregator) observeTime(rec telemetry.Record) {
	t := rec.Time()
	if iv, ok := rec.(telemetry.Interval); ok {
		t = iv.EndTime()
	}
	if t > a.maxTime {
		a.maxTime = t
	}
}
