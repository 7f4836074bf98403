// Package diag collects the data-quality findings of one pipeline run.
// The struct is owned by the run and passed to the components that feed
// it; nothing here is global state.
package diag

import "sort"

// StreamStats mirrors the per-stream reader counters.
type StreamStats struct {
	Read    int64 `json:"read"`
	Skipped int64 `json:"skipped"`
}

// Overlap records two charging sessions occupying a single-slot station
// at the same time. Reported, never corrected.
type Overlap struct {
	StationID string  `json:"station_id"`
	VehicleID string  `json:"vehicle_id"`
	Begin     float64 `json:"begin"`
	End       float64 `json:"end"`
}

// Diagnostics is the explicit, run-owned counterpart of what would
// otherwise be ambient counters. It is folded into the final report.
type Diagnostics struct {
	Streams            map[string]StreamStats `json:"streams"`
	MissingCorrelation []string               `json:"missing_correlation,omitempty"`
	Overlaps           []Overlap              `json:"overlaps,omitempty"`
	PeakActiveVehicles int                    `json:"peak_active_vehicles"`
}

func New() *Diagnostics {
	return &Diagnostics{Streams: make(map[string]StreamStats)}
}

// AddMissing flags a vehicle that appeared in a secondary stream but
// never in the position/speed stream.
func (d *Diagnostics) AddMissing(vehicleID string) {
	d.MissingCorrelation = append(d.MissingCorrelation, vehicleID)
}

// AddOverlap flags a concurrent session at a single-slot station.
func (d *Diagnostics) AddOverlap(o Overlap) {
	d.Overlaps = append(d.Overlaps, o)
}

// SetStreamStats records the final reader counters for one stream.
func (d *Diagnostics) SetStreamStats(stream string, s StreamStats) {
	d.Streams[stream] = s
}

// Finish normalizes ordering so two identical runs produce identical
// diagnostics output.
func (d *Diagnostics) Finish() {
	sort.Strings(d.MissingCorrelation)
	sort.Slice(d.Overlaps, func(i, j int) bool {
		if d.Overlaps[i].StationID != d.Overlaps[j].StationID {
			return d.Overlaps[i].StationID < d.Overlaps[j].StationID
		}
		if d.Overlaps[i].Begin != d.Overlaps[j].Begin {
			return d.Overlaps[i].Begin < d.Overlaps[j].Begin
		}
		return d.Overlaps[i].VehicleID < d.Overlaps[j].VehicleID
	})
}

// SkippedTotal sums the malformed-record counters across streams.
func (d *Diagnostics) SkippedTotal() int64 {
	var n int64
	for _, s := range d.Streams {
		n += s.Skipped
	}
	return n
}
