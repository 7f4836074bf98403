// Package synth generates well-formed synthetic telemetry streams in the
// simulator's export formats. It stands in for the external simulator
// when producing test fixtures and load-test inputs.
package synth

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
)

// Config shapes the generated scenario. Vehicle i departs Stagger steps
// after vehicle i-1 and drives for Steps steps, so the number of
// concurrently active vehicles stays around Steps/Stagger regardless of
// fleet size.
type Config struct {
	Vehicles int
	Steps    int
	Stations int
	Stagger  int
	Seed     int64
}

// Files holds the paths written by WriteDir.
type Files struct {
	FCD      string
	Battery  string
	TripInfo string
	Charging string
}

type Generator struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config) *Generator {
	if cfg.Vehicles < 1 {
		cfg.Vehicles = 1
	}
	if cfg.Steps < 2 {
		cfg.Steps = 2
	}
	if cfg.Stagger < 1 {
		cfg.Stagger = 1
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// WriteDir writes the four streams into dir and returns their paths.
func (g *Generator) WriteDir(dir string) (Files, error) {
	files := Files{
		FCD:      filepath.Join(dir, "fcd.xml"),
		Battery:  filepath.Join(dir, "battery.xml"),
		TripInfo: filepath.Join(dir, "tripinfo.xml"),
		Charging: filepath.Join(dir, "chargingevents.xml"),
	}
	scenario := g.build()
	for _, out := range []struct {
		path  string
		write func(io.Writer, scenarioData) error
	}{
		{files.FCD, writeFCD},
		{files.Battery, writeBattery},
		{files.TripInfo, writeTrips},
		{files.Charging, writeCharging},
	} {
		f, err := os.Create(out.path)
		if err != nil {
			return files, err
		}
		if err := out.write(f, scenario); err != nil {
			_ = f.Close()
			return files, err
		}
		if err := f.Close(); err != nil {
			return files, err
		}
	}
	return files, nil
}

type vehicle struct {
	id       string
	vtype    string
	depart   int
	arrival  int
	speeds   []float64
	distance float64
	session  *session
}

type session struct {
	station string
	begin   int
	end     int
	energy  float64
	soc     float64
}

type scenarioData struct {
	vehicles []vehicle
	maxTime  int
}

func (g *Generator) build() scenarioData {
	types := []string{"ev_sedan", "ev_bus", "ev_truck"}
	sc := scenarioData{}
	for i := 0; i < g.cfg.Vehicles; i++ {
		v := vehicle{
			id:     fmt.Sprintf("veh%d", i),
			vtype:  types[i%len(types)],
			depart: i * g.cfg.Stagger,
		}
		v.arrival = v.depart + g.cfg.Steps - 1
		for s := 0; s < g.cfg.Steps; s++ {
			speed := 8 + 6*g.rng.Float64()
			v.speeds = append(v.speeds, speed)
			v.distance += speed
		}
		// begin+3 <= arrival needs at least 8 steps, so sessions stay
		// inside the trip they belong to
		if g.cfg.Stations > 0 && i%3 == 0 && g.cfg.Steps >= 8 {
			begin := v.depart + g.cfg.Steps/2
			v.session = &session{
				station: fmt.Sprintf("cs%d", i%g.cfg.Stations),
				begin:   begin,
				end:     begin + 3,
				energy:  400 + 200*g.rng.Float64(),
				soc:     0.3 + 0.4*g.rng.Float64(),
			}
		}
		if v.arrival > sc.maxTime {
			sc.maxTime = v.arrival
		}
		sc.vehicles = append(sc.vehicles, v)
	}
	return sc
}

func writeFCD(w io.Writer, sc scenarioData) error {
	if _, err := fmt.Fprintln(w, `<fcd-export>`); err != nil {
		return err
	}
	for t := 0; t <= sc.maxTime; t++ {
		active := activeAt(sc, t)
		if len(active) == 0 {
			continue
		}
		fmt.Fprintf(w, "  <timestep time=\"%d.00\">\n", t)
		for _, v := range active {
			s := v.speeds[t-v.depart]
			fmt.Fprintf(w, "    <vehicle id=%q type=%q x=\"%.2f\" y=\"%.2f\" speed=\"%.2f\" angle=\"90.00\"/>\n",
				v.id, v.vtype, float64(t-v.depart)*s, 0.0, s)
		}
		if _, err := fmt.Fprintln(w, "  </timestep>"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, `</fcd-export>`)
	return err
}

func writeBattery(w io.Writer, sc scenarioData) error {
	const capacityWh = 64000.0
	if _, err := fmt.Fprintln(w, `<battery-export>`); err != nil {
		return err
	}
	for t := 0; t <= sc.maxTime; t++ {
		active := activeAt(sc, t)
		if len(active) == 0 {
			continue
		}
		fmt.Fprintf(w, "  <timestep time=\"%d.00\">\n", t)
		for _, v := range active {
			consumed := 0.0
			for s := 0; s <= t-v.depart; s++ {
				consumed += v.speeds[s] * 12
			}
			regen := consumed * 0.1
			fmt.Fprintf(w, "    <vehicle id=%q energyConsumed=\"%.2f\" energyRegenerated=\"%.2f\" actualBatteryCapacity=\"%.2f\" maximumBatteryCapacity=\"%.0f\"/>\n",
				v.id, consumed, regen, capacityWh-consumed+regen, capacityWh)
		}
		if _, err := fmt.Fprintln(w, "  </timestep>"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, `</battery-export>`)
	return err
}

func writeTrips(w io.Writer, sc scenarioData) error {
	if _, err := fmt.Fprintln(w, `<tripinfos>`); err != nil {
		return err
	}
	for _, v := range sc.vehicles {
		fmt.Fprintf(w, "  <tripinfo id=%q vType=%q depart=\"%d.00\" arrival=\"%d.00\" duration=\"%d.00\" routeLength=\"%.2f\" waitingTime=\"0.00\"/>\n",
			v.id, v.vtype, v.depart, v.arrival, v.arrival-v.depart, v.distance)
	}
	_, err := fmt.Fprintln(w, `</tripinfos>`)
	return err
}

func writeCharging(w io.Writer, sc scenarioData) error {
	if _, err := fmt.Fprintln(w, `<charging-export>`); err != nil {
		return err
	}
	for _, v := range sc.vehicles {
		if v.session == nil {
			continue
		}
		s := v.session
		fmt.Fprintf(w, "  <chargingEvent station=%q vehicle=%q chargingBegin=\"%d.00\" chargingEnd=\"%d.00\" energyCharged=\"%.2f\" soc=\"%.3f\"/>\n",
			s.station, v.id, s.begin, s.end, s.energy, s.soc)
	}
	_, err := fmt.Fprintln(w, `</charging-export>`)
	return err
}

func activeAt(sc scenarioData, t int) []vehicle {
	var out []vehicle
	for _, v := range sc.vehicles {
		if t >= v.depart && t <= v.arrival {
			out = append(out, v)
		}
	}
	return out
}
