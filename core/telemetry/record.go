package telemetry

// Kind identifies the telemetry stream a record originates from. The
// numeric order doubles as the emission priority when several records
// share a timestamp: position samples first, then battery states, then
// trip summaries and charging events.
type Kind int

const (
	KindVehicleSample Kind = iota
	KindBatteryState
	KindTripSummary
	KindChargingEvent
)

func (k Kind) String() string {
	switch k {
	case KindVehicleSample:
		return "fcd"
	case KindBatteryState:
		return "battery"
	case KindTripSummary:
		return "tripinfo"
	case KindChargingEvent:
		return "charging"
	default:
		return "unknown"
	}
}

// Record is the canonical shape shared by the four stream record types.
// Time returns the ordering timestamp in simulation seconds: the sample
// time for point records, the start time for interval records.
type Record interface {
	Kind() Kind
	Time() float64
	Vehicle() string
}

// Interval is implemented by records covering a time window rather than
// a single instant. EndTime is always >= Time.
type Interval interface {
	Record
	EndTime() float64
}

// VehicleSample is one per-step position and speed observation.
type VehicleSample struct {
	VehicleID   string
	VehicleType string
	Timestamp   float64
	X           float64
	Y           float64
	Speed       float64
	Angle       float64
	// Acceleration is only present when the simulator exports it.
	Acceleration    float64
	HasAcceleration bool
}

func (VehicleSample) Kind() Kind        { return KindVehicleSample }
func (s VehicleSample) Time() float64   { return s.Timestamp }
func (s VehicleSample) Vehicle() string { return s.VehicleID }

// BatteryState is one per-step battery observation. Consumed and
// regenerated energy are cumulative counters, as exported by the
// simulator's battery device.
type BatteryState struct {
	VehicleID     string
	Timestamp     float64
	RemainingWh   float64
	CapacityWh    float64
	SoC           float64
	ConsumedWh    float64
	RegeneratedWh float64
}

func (BatteryState) Kind() Kind        { return KindBatteryState }
func (b BatteryState) Time() float64   { return b.Timestamp }
func (b BatteryState) Vehicle() string { return b.VehicleID }

// TripSummary is emitted once per completed trip. It is ordered by its
// departure time and closed at its arrival time.
type TripSummary struct {
	VehicleID   string
	VehicleType string
	Depart      float64
	Arrival     float64
	Duration    float64
	DistanceM   float64
	WaitingS    float64
}

func (TripSummary) Kind() Kind         { return KindTripSummary }
func (t TripSummary) Time() float64    { return t.Depart }
func (t TripSummary) EndTime() float64 { return t.Arrival }
func (t TripSummary) Vehicle() string  { return t.VehicleID }

// ChargingEvent is one charging session at a station, covering the
// window [Begin, End].
type ChargingEvent struct {
	StationID string
	VehicleID string
	Begin     float64
	End       float64
	EnergyWh  float64
	// SoC is the vehicle's state of charge when the session began,
	// only present when the export carries it.
	SoC    float64
	HasSoC bool
}

func (ChargingEvent) Kind() Kind         { return KindChargingEvent }
func (c ChargingEvent) Time() float64    { return c.Begin }
func (c ChargingEvent) EndTime() float64 { return c.End }
func (c ChargingEvent) Vehicle() string  { return c.VehicleID }
