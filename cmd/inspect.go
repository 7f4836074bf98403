package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetscope/config"
	"github.com/kilianp07/fleetscope/core/stream"
	"github.com/kilianp07/fleetscope/core/telemetry"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Scan the configured streams and print record counts",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, in := range []struct {
		kind telemetry.Kind
		path string
	}{
		{telemetry.KindVehicleSample, cfg.Streams.FCD},
		{telemetry.KindBatteryState, cfg.Streams.Battery},
		{telemetry.KindTripSummary, cfg.Streams.TripInfo},
		{telemetry.KindChargingEvent, cfg.Streams.Charging},
	} {
		if in.path == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s not configured\n", in.kind)
			continue
		}
		if err := inspectStream(ctx, cmd.OutOrStdout(), in.kind, in.path, cfg.Ingest.MalformedThreshold); err != nil {
			return err
		}
	}
	return nil
}

func inspectStream(ctx context.Context, w io.Writer, kind telemetry.Kind, path string, threshold int64) error {
	r, err := stream.Open(kind, path, stream.Options{MalformedThreshold: threshold})
	if err != nil {
		return fmt.Errorf("open %s stream: %w", kind, err)
	}
	defer func() { _ = r.Close() }()

	var first, last float64
	for {
		rec, err := r.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if r.Stats().Read == 1 {
			first = rec.Time()
		}
		last = rec.Time()
	}
	st := r.Stats()
	fmt.Fprintf(w, "%-10s %d records (%d skipped), t=[%.1f, %.1f]\n", kind, st.Read, st.Skipped, first, last)
	return nil
}
