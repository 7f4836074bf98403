package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kilianp07/fleetscope/core/telemetry"
)

const fcdFixture = `<fcd-export>
  <timestep time="0.0">
    <vehicle id="V1" x="0.0" y="0.0" speed="0.0" angle="90.0" type="ev_sedan"/>
  </timestep>
  <timestep time="1.0">
    <vehicle id="V1" x="10.0" y="0.0" speed="10.0"/>
    <vehicle id="V2" x="5.0" y="1.0" speed="not-a-number"/>
  </timestep>
  <timestep time="2.0">
    <vehicle id="V1" x="30.0" y="0.0" speed="20.0" acceleration="1.5"/>
  </timestep>
</fcd-export>`

func drain(t *testing.T, r Reader) []telemetry.Record {
	t.Helper()
	var out []telemetry.Record
	for {
		rec, err := r.Next(context.Background())
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, rec)
	}
}

func TestFCDReader(t *testing.T) {
	r := NewFCDReader(strings.NewReader(fcdFixture), Options{})
	recs := drain(t, r)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	first, ok := recs[0].(telemetry.VehicleSample)
	if !ok {
		t.Fatalf("expected VehicleSample, got %T", recs[0])
	}
	if first.VehicleID != "V1" || first.Timestamp != 0 || first.VehicleType != "ev_sedan" {
		t.Fatalf("unexpected first sample: %+v", first)
	}
	last := recs[2].(telemetry.VehicleSample)
	if !last.HasAcceleration || last.Acceleration != 1.5 {
		t.Fatalf("acceleration not parsed: %+v", last)
	}
	st := r.Stats()
	if st.Read != 3 || st.Skipped != 1 {
		t.Fatalf("stats read=%d skipped=%d", st.Read, st.Skipped)
	}
}

func TestFCDReaderMalformedThreshold(t *testing.T) {
	const corrupt = `<fcd-export>
  <timestep time="0.0">
    <vehicle id="V1" x="a" y="0" speed="0"/>
    <vehicle id="V2" x="b" y="0" speed="0"/>
  </timestep>
</fcd-export>`
	r := NewFCDReader(strings.NewReader(corrupt), Options{MalformedThreshold: 1})
	_, err := r.Next(context.Background())
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected corrupt stream, got %v", err)
	}
	// errors are sticky
	if _, err2 := r.Next(context.Background()); !errors.Is(err2, ErrCorrupt) {
		t.Fatalf("expected sticky error, got %v", err2)
	}
}

func TestFCDReaderTimeRegression(t *testing.T) {
	const regressed = `<fcd-export>
  <timestep time="5.0">
    <vehicle id="V1" x="0" y="0" speed="1"/>
  </timestep>
  <timestep time="4.0">
    <vehicle id="V1" x="0" y="0" speed="1"/>
  </timestep>
</fcd-export>`
	r := NewFCDReader(strings.NewReader(regressed), Options{})
	if _, err := r.Next(context.Background()); err != nil {
		t.Fatalf("first record: %v", err)
	}
	_, err := r.Next(context.Background())
	var ce *CorruptError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CorruptError, got %v", err)
	}
	if ce.Stream != telemetry.KindVehicleSample {
		t.Fatalf("wrong stream in error: %v", ce.Stream)
	}
}

func TestBatteryReader(t *testing.T) {
	const batt = `<battery-export>
  <timestep time="1.0">
    <vehicle id="V1" energyConsumed="120.0" energyRegenerated="12.0" actualBatteryCapacity="32000" maximumBatteryCapacity="64000"/>
  </timestep>
</battery-export>`
	r := NewBatteryReader(strings.NewReader(batt), Options{})
	recs := drain(t, r)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	b := recs[0].(telemetry.BatteryState)
	if b.SoC != 0.5 {
		t.Fatalf("expected SoC 0.5, got %v", b.SoC)
	}
	if b.ConsumedWh != 120 || b.RegeneratedWh != 12 {
		t.Fatalf("unexpected energy counters: %+v", b)
	}
}

func TestTripReader(t *testing.T) {
	const trips = `<tripinfos>
  <tripinfo id="V1" vType="ev_bus" depart="0.0" arrival="2.0" duration="2.0" routeLength="30.0" waitingTime="0.5"/>
  <tripinfo id="V2" depart="5.0" arrival="4.0" routeLength="10.0"/>
  <tripinfo id="V3" depart="6.0" arrival="9.0" routeLength="40.0"/>
</tripinfos>`
	r := NewTripReader(strings.NewReader(trips), Options{})
	recs := drain(t, r)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records (1 malformed), got %d", len(recs))
	}
	tr := recs[0].(telemetry.TripSummary)
	if tr.VehicleID != "V1" || tr.DistanceM != 30 || tr.Duration != 2 || tr.WaitingS != 0.5 {
		t.Fatalf("unexpected trip: %+v", tr)
	}
	if r.Stats().Skipped != 1 {
		t.Fatalf("arrival-before-depart should be skipped, stats=%+v", r.Stats())
	}
	// missing duration falls back to arrival-depart
	v3 := recs[1].(telemetry.TripSummary)
	if v3.Duration != 3 {
		t.Fatalf("expected derived duration 3, got %v", v3.Duration)
	}
}

func TestChargingReader(t *testing.T) {
	const charging = `<charging-export>
  <chargingEvent station="S1" vehicle="V2" chargingBegin="5.0" chargingEnd="8.0" energyCharged="12.0" soc="0.25"/>
  <chargingEvent station="S1" vehicle="V3" chargingBegin="9.0" chargingEnd="11.0" energyCharged="6.0"/>
</charging-export>`
	r := NewChargingReader(strings.NewReader(charging), Options{})
	recs := drain(t, r)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	ev := recs[0].(telemetry.ChargingEvent)
	if ev.StationID != "S1" || ev.Begin != 5 || ev.EndTime() != 8 || ev.EnergyWh != 12 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !ev.HasSoC || ev.SoC != 0.25 {
		t.Fatalf("soc not parsed: %+v", ev)
	}
	// soc stays optional
	if recs[1].(telemetry.ChargingEvent).HasSoC {
		t.Fatalf("absent soc reported as present: %+v", recs[1])
	}
}

func TestReaderContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewFCDReader(strings.NewReader(fcdFixture), Options{})
	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
