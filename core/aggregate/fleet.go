package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FleetStats summarizes the whole run. Speed figures are computed over
// the per-vehicle mean speeds of vehicles that had samples.
type FleetStats struct {
	Vehicles            int     `json:"vehicles"`
	CompletedTrips      int     `json:"completed_trips"`
	NoDataVehicles      int     `json:"no_data_vehicles,omitempty"`
	TotalDistanceM      float64 `json:"total_distance_m"`
	TotalWaitingS       float64 `json:"total_waiting_s"`
	EnergyConsumedWh    float64 `json:"energy_consumed_wh"`
	EnergyRegeneratedWh float64 `json:"energy_regenerated_wh"`
	NetEnergyWh         float64 `json:"net_energy_wh"`
	ChargingEnergyWh    float64 `json:"charging_energy_wh"`
	MeanSpeed           float64 `json:"mean_speed"`
	SpeedP50            float64 `json:"speed_p50"`
	SpeedP90            float64 `json:"speed_p90"`
	SimEndS             float64 `json:"sim_end_s"`
}

// TypeStats is the per-vehicle-type rollup.
type TypeStats struct {
	VehicleType    string  `json:"vehicle_type"`
	Vehicles       int     `json:"vehicles"`
	MeanSpeed      float64 `json:"mean_speed"`
	MaxSpeed       float64 `json:"max_speed"`
	TotalDistanceM float64 `json:"total_distance_m"`
	TotalWaitingS  float64 `json:"total_waiting_s"`
}

// Fleet rolls the finalized aggregates up into fleet-wide figures.
func Fleet(aggs []VehicleAggregate, simEnd float64) FleetStats {
	f := FleetStats{Vehicles: len(aggs), SimEndS: simEnd}
	var means []float64
	for _, a := range aggs {
		if a.HasTrip {
			f.CompletedTrips++
		}
		if a.NoData {
			f.NoDataVehicles++
		}
		f.TotalDistanceM += a.DistanceM
		f.TotalWaitingS += a.WaitingS
		f.EnergyConsumedWh += a.EnergyConsumedWh
		f.EnergyRegeneratedWh += a.EnergyRegeneratedWh
		f.ChargingEnergyWh += a.ChargingEnergyWh
		if a.Speed != nil {
			means = append(means, a.Speed.Mean)
		}
	}
	f.NetEnergyWh = f.EnergyConsumedWh - f.EnergyRegeneratedWh
	if len(means) > 0 {
		sort.Float64s(means)
		f.MeanSpeed = stat.Mean(means, nil)
		f.SpeedP50 = stat.Quantile(0.5, stat.Empirical, means, nil)
		f.SpeedP90 = stat.Quantile(0.9, stat.Empirical, means, nil)
	}
	return f
}

// ByType partitions the finalized aggregates by vehicle type. Vehicles
// without a reported type are grouped under "unknown".
func ByType(aggs []VehicleAggregate) []TypeStats {
	byType := map[string][]VehicleAggregate{}
	for _, a := range aggs {
		t := a.VehicleType
		if t == "" {
			t = "unknown"
		}
		byType[t] = append(byType[t], a)
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	out := make([]TypeStats, 0, len(types))
	for _, t := range types {
		ts := TypeStats{VehicleType: t}
		var means []float64
		for _, a := range byType[t] {
			ts.Vehicles++
			ts.TotalDistanceM += a.DistanceM
			ts.TotalWaitingS += a.WaitingS
			if a.Speed != nil {
				means = append(means, a.Speed.Mean)
				if a.Speed.Max > ts.MaxSpeed {
					ts.MaxSpeed = a.Speed.Max
				}
			}
		}
		if len(means) > 0 {
			ts.MeanSpeed = stat.Mean(means, nil)
		}
		out = append(out, ts)
	}
	return out
}
