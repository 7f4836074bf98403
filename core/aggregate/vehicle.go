package aggregate

// VehicleAggregate is the finalized per-vehicle rollup. It is immutable
// once emitted by the Aggregator.
//
// Speed is nil when no position sample was ever correlated for the
// vehicle (NoData), which is distinct from a vehicle that genuinely
// never moved.
type VehicleAggregate struct {
	VehicleID   string `json:"vehicle_id"`
	VehicleType string `json:"vehicle_type,omitempty"`

	NoData      bool        `json:"no_data,omitempty"`
	Samples     int64       `json:"samples"`
	Speed       *SpeedStats `json:"speed,omitempty"`
	SpeedStdDev float64     `json:"speed_stddev,omitempty"`

	HasTrip   bool    `json:"has_trip"`
	Depart    float64 `json:"depart,omitempty"`
	Arrival   float64 `json:"arrival,omitempty"`
	DurationS float64 `json:"duration_s,omitempty"`
	DistanceM float64 `json:"distance_m,omitempty"`
	WaitingS  float64 `json:"waiting_s,omitempty"`

	BatterySamples      int64   `json:"battery_samples,omitempty"`
	FinalSoC            float64 `json:"final_soc,omitempty"`
	EnergyConsumedWh    float64 `json:"energy_consumed_wh,omitempty"`
	EnergyRegeneratedWh float64 `json:"energy_regenerated_wh,omitempty"`
	NetEnergyWh         float64 `json:"net_energy_wh,omitempty"`
	EfficiencyWhPerKm   float64 `json:"efficiency_wh_per_km,omitempty"`
	RegenEfficiencyPct  float64 `json:"regen_efficiency_pct,omitempty"`
	ChargingSessions    int     `json:"charging_sessions,omitempty"`
	ChargingEnergyWh    float64 `json:"charging_energy_wh,omitempty"`
}
