// Package report assembles the final run output: per-vehicle, per-type,
// per-station and fleet aggregates plus the data-quality diagnostics.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetscope/core/aggregate"
	"github.com/kilianp07/fleetscope/core/diag"
	"github.com/kilianp07/fleetscope/core/station"
)

// Report is the external-facing summary of one pipeline run.
type Report struct {
	RunID       string                       `json:"run_id"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Fleet       aggregate.FleetStats         `json:"fleet"`
	Vehicles    []aggregate.VehicleAggregate `json:"vehicles"`
	Types       []aggregate.TypeStats        `json:"types,omitempty"`
	Stations    []station.Aggregate          `json:"stations,omitempty"`
	Diagnostics diag.Diagnostics             `json:"diagnostics"`
}

// Assemble builds the report from finalized aggregates. Vehicles must
// already be sorted by the aggregator; diagnostics are normalized here
// so identical inputs produce identical reports apart from RunID and
// GeneratedAt.
func Assemble(vehicles []aggregate.VehicleAggregate, stations []station.Aggregate,
	simEnd float64, d *diag.Diagnostics) *Report {
	d.Finish()
	return &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Fleet:       aggregate.Fleet(vehicles, simEnd),
		Vehicles:    vehicles,
		Types:       aggregate.ByType(vehicles),
		Stations:    stations,
		Diagnostics: *d,
	}
}
