// Package export renders an assembled report for external consumption.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kilianp07/fleetscope/core/report"
)

// WriteJSON writes the full report to w in indented JSON.
func WriteJSON(w io.Writer, r *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteCSV writes the report to w as sectioned CSV: a vehicles table,
// a stations table and a diagnostics table separated by blank lines.
func WriteCSV(w io.Writer, r *report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"vehicle_id", "vehicle_type", "samples", "speed_mean", "speed_min", "speed_max",
		"speed_stddev", "distance_m", "duration_s", "waiting_s", "net_energy_wh",
		"efficiency_wh_per_km", "charging_sessions", "no_data",
	}); err != nil {
		return err
	}
	for _, v := range r.Vehicles {
		mean, min, max := "", "", ""
		if v.Speed != nil {
			mean = ftoa(v.Speed.Mean)
			min = ftoa(v.Speed.Min)
			max = ftoa(v.Speed.Max)
		}
		rec := []string{
			v.VehicleID, v.VehicleType, strconv.FormatInt(v.Samples, 10),
			mean, min, max, ftoa(v.SpeedStdDev),
			ftoa(v.DistanceM), ftoa(v.DurationS), ftoa(v.WaitingS),
			ftoa(v.NetEnergyWh), ftoa(v.EfficiencyWhPerKm),
			strconv.Itoa(v.ChargingSessions), strconv.FormatBool(v.NoData),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	if len(r.Stations) > 0 {
		if err := cw.Write(nil); err != nil {
			return err
		}
		if err := cw.Write([]string{
			"station_id", "sessions", "energy_wh", "occupied_s", "overlaps", "distinct_vehicles",
			"mean_soc_at_start",
		}); err != nil {
			return err
		}
		for _, s := range r.Stations {
			rec := []string{
				s.StationID, strconv.Itoa(s.Sessions), ftoa(s.EnergyWh),
				ftoa(s.OccupiedS), strconv.Itoa(s.Overlaps), strconv.Itoa(s.VehiclesIn),
				ftoa(s.MeanSoCAtStart),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}

	if err := cw.Write(nil); err != nil {
		return err
	}
	if err := cw.Write([]string{"stream", "read", "skipped"}); err != nil {
		return err
	}
	for _, name := range []string{"fcd", "battery", "tripinfo", "charging"} {
		s, ok := r.Diagnostics.Streams[name]
		if !ok {
			continue
		}
		rec := []string{name, strconv.FormatInt(s.Read, 10), strconv.FormatInt(s.Skipped, 10)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText writes human-readable aligned tables, with the data-quality
// caveats always stated alongside the metrics.
func WriteText(w io.Writer, r *report.Report) error {
	fmt.Fprintf(w, "run %s generated %s\n\n", r.RunID, r.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VEHICLE\tTYPE\tSAMPLES\tMEAN SPEED\tMAX SPEED\tDISTANCE M\tDURATION S\tNET ENERGY WH\tSESSIONS")
	for _, v := range r.Vehicles {
		mean, max := "no data", "no data"
		if v.Speed != nil {
			mean = ftoa(v.Speed.Mean)
			max = ftoa(v.Speed.Max)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			v.VehicleID, v.VehicleType, v.Samples, mean, max,
			ftoa(v.DistanceM), ftoa(v.DurationS), ftoa(v.NetEnergyWh), v.ChargingSessions)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Stations) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STATION\tSESSIONS\tENERGY WH\tOCCUPIED S\tOVERLAPS\tVEHICLES")
		for _, s := range r.Stations {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\n",
				s.StationID, s.Sessions, ftoa(s.EnergyWh), ftoa(s.OccupiedS), s.Overlaps, s.VehiclesIn)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "\nfleet: %d vehicles, %d trips completed, %.1f m traveled, %.1f Wh net energy, mean speed %.2f m/s (p50 %.2f, p90 %.2f)\n",
		r.Fleet.Vehicles, r.Fleet.CompletedTrips, r.Fleet.TotalDistanceM,
		r.Fleet.NetEnergyWh, r.Fleet.MeanSpeed, r.Fleet.SpeedP50, r.Fleet.SpeedP90)

	fmt.Fprintf(w, "data quality: %d malformed records skipped, %d vehicles without position data, %d station overlap anomalies, peak active set %d\n",
		r.Diagnostics.SkippedTotal(), len(r.Diagnostics.MissingCorrelation),
		len(r.Diagnostics.Overlaps), r.Diagnostics.PeakActiveVehicles)
	for _, id := range r.Diagnostics.MissingCorrelation {
		fmt.Fprintf(w, "  missing correlation: %s\n", id)
	}
	return nil
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
