package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetscope/app"
	"github.com/kilianp07/fleetscope/config"
	"github.com/kilianp07/fleetscope/infra/logger"
	inframetrics "github.com/kilianp07/fleetscope/infra/metrics"
)

var (
	cfgPath     string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "fleetscope",
	Short: "Correlate and aggregate EV simulation telemetry streams",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-listen", "", "expose Prometheus metrics on this address while running")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if metricsAddr != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, metricsAddr); err != nil {
				logger.New("main").Errorf("prom server: %v", err)
			}
		}()
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	return svc.Run(ctx)
}
