package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetscope/pkg/synth"
)

var genCfg synth.Config

var outDir string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic telemetry streams for testing",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	generateCmd.Flags().IntVar(&genCfg.Vehicles, "vehicles", 10, "number of vehicles")
	generateCmd.Flags().IntVar(&genCfg.Steps, "steps", 60, "samples per vehicle")
	generateCmd.Flags().IntVar(&genCfg.Stations, "stations", 2, "number of charging stations")
	generateCmd.Flags().IntVar(&genCfg.Stagger, "stagger", 5, "departure offset between vehicles in steps")
	generateCmd.Flags().Int64Var(&genCfg.Seed, "seed", 1, "random seed")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	files, err := synth.New(genCfg).WriteDir(outDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s %s %s %s\n",
		files.FCD, files.Battery, files.TripInfo, files.Charging)
	return nil
}
