package stream

import (
	"strconv"

	"github.com/kilianp07/fleetscope/core/telemetry"
)

// attrs holds the raw attributes of one XML element. Normalization maps
// these stream-specific shapes onto the canonical record types without
// any side effects; every failure surfaces as a MalformedError.
type attrs map[string]string

func (a attrs) str(kind telemetry.Kind, element, key string) (string, error) {
	v, ok := a[key]
	if !ok || v == "" {
		return "", &MalformedError{Stream: kind, Element: element, Reason: "missing attribute " + key}
	}
	return v, nil
}

func (a attrs) float(kind telemetry.Kind, element, key string) (float64, error) {
	v, err := a.str(kind, element, key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &MalformedError{Stream: kind, Element: element, Reason: "non-numeric " + key + ": " + v}
	}
	return f, nil
}

// optFloat returns (0, false, nil) when the attribute is absent.
func (a attrs) optFloat(kind telemetry.Kind, element, key string) (float64, bool, error) {
	v, ok := a[key]
	if !ok || v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, &MalformedError{Stream: kind, Element: element, Reason: "non-numeric " + key + ": " + v}
	}
	return f, true, nil
}

func normalizeSample(step float64, a attrs) (telemetry.VehicleSample, error) {
	const el = "vehicle"
	kind := telemetry.KindVehicleSample
	id, err := a.str(kind, el, "id")
	if err != nil {
		return telemetry.VehicleSample{}, err
	}
	x, err := a.float(kind, el, "x")
	if err != nil {
		return telemetry.VehicleSample{}, err
	}
	y, err := a.float(kind, el, "y")
	if err != nil {
		return telemetry.VehicleSample{}, err
	}
	speed, err := a.float(kind, el, "speed")
	if err != nil {
		return telemetry.VehicleSample{}, err
	}
	angle, _, err := a.optFloat(kind, el, "angle")
	if err != nil {
		return telemetry.VehicleSample{}, err
	}
	accel, hasAccel, err := a.optFloat(kind, el, "acceleration")
	if err != nil {
		return telemetry.VehicleSample{}, err
	}
	return telemetry.VehicleSample{
		VehicleID:       id,
		VehicleType:     a["type"],
		Timestamp:       step,
		X:               x,
		Y:               y,
		Speed:           speed,
		Angle:           angle,
		Acceleration:    accel,
		HasAcceleration: hasAccel,
	}, nil
}

func normalizeBattery(step float64, a attrs) (telemetry.BatteryState, error) {
	const el = "vehicle"
	kind := telemetry.KindBatteryState
	id, err := a.str(kind, el, "id")
	if err != nil {
		return telemetry.BatteryState{}, err
	}
	remaining, err := a.float(kind, el, "actualBatteryCapacity")
	if err != nil {
		return telemetry.BatteryState{}, err
	}
	capacity, err := a.float(kind, el, "maximumBatteryCapacity")
	if err != nil {
		return telemetry.BatteryState{}, err
	}
	consumed, err := a.float(kind, el, "energyConsumed")
	if err != nil {
		return telemetry.BatteryState{}, err
	}
	regen, _, err := a.optFloat(kind, el, "energyRegenerated")
	if err != nil {
		return telemetry.BatteryState{}, err
	}
	soc := 0.0
	if capacity > 0 {
		soc = remaining / capacity
	}
	return telemetry.BatteryState{
		VehicleID:     id,
		Timestamp:     step,
		RemainingWh:   remaining,
		CapacityWh:    capacity,
		SoC:           soc,
		ConsumedWh:    consumed,
		RegeneratedWh: regen,
	}, nil
}

func normalizeTrip(a attrs) (telemetry.TripSummary, error) {
	const el = "tripinfo"
	kind := telemetry.KindTripSummary
	id, err := a.str(kind, el, "id")
	if err != nil {
		return telemetry.TripSummary{}, err
	}
	depart, err := a.float(kind, el, "depart")
	if err != nil {
		return telemetry.TripSummary{}, err
	}
	arrival, err := a.float(kind, el, "arrival")
	if err != nil {
		return telemetry.TripSummary{}, err
	}
	if arrival < depart {
		return telemetry.TripSummary{}, &MalformedError{
			Stream: kind, Element: el, Reason: "arrival before depart",
		}
	}
	duration, ok, err := a.optFloat(kind, el, "duration")
	if err != nil {
		return telemetry.TripSummary{}, err
	}
	if !ok {
		duration = arrival - depart
	}
	distance, err := a.float(kind, el, "routeLength")
	if err != nil {
		return telemetry.TripSummary{}, err
	}
	waiting, _, err := a.optFloat(kind, el, "waitingTime")
	if err != nil {
		return telemetry.TripSummary{}, err
	}
	return telemetry.TripSummary{
		VehicleID:   id,
		VehicleType: a["vType"],
		Depart:      depart,
		Arrival:     arrival,
		Duration:    duration,
		DistanceM:   distance,
		WaitingS:    waiting,
	}, nil
}

func normalizeCharging(a attrs) (telemetry.ChargingEvent, error) {
	const el = "chargingEvent"
	kind := telemetry.KindChargingEvent
	station, err := a.str(kind, el, "station")
	if err != nil {
		return telemetry.ChargingEvent{}, err
	}
	vehicle, err := a.str(kind, el, "vehicle")
	if err != nil {
		return telemetry.ChargingEvent{}, err
	}
	begin, err := a.float(kind, el, "chargingBegin")
	if err != nil {
		return telemetry.ChargingEvent{}, err
	}
	end, err := a.float(kind, el, "chargingEnd")
	if err != nil {
		return telemetry.ChargingEvent{}, err
	}
	if end < begin {
		return telemetry.ChargingEvent{}, &MalformedError{
			Stream: kind, Element: el, Reason: "chargingEnd before chargingBegin",
		}
	}
	energy, err := a.float(kind, el, "energyCharged")
	if err != nil {
		return telemetry.ChargingEvent{}, err
	}
	soc, hasSoC, err := a.optFloat(kind, el, "soc")
	if err != nil {
		return telemetry.ChargingEvent{}, err
	}
	return telemetry.ChargingEvent{
		StationID: station,
		VehicleID: vehicle,
		Begin:     begin,
		End:       end,
		EnergyWh:  energy,
		SoC:       soc,
		HasSoC:    hasSoC,
	}, nil
}
