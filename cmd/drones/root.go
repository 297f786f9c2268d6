package main

import (
	"github.com/spf13/cobra"

	"github.com/janinge/drones2/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config

	flagFiles  []string
	flagPrefix string
	flagSeed   int64
	flagRuns   int
	flagCSVDir string
	flagPgURL  string

	flagRemovalRatio float64
	flagRemovalBias  float64
	flagRemovalMin   int
	flagRemovalMax   int
)

var rootCmd = &cobra.Command{
	Use:   "drones",
	Short: "Pickup-and-delivery route solver",
	Long: `drones solves pickup-and-delivery instances with time windows.
The alns subcommand runs the adaptive search; pooled runs the
fixed-weight wall-clock variant; anneal and local are baselines.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		// flags win over file and environment
		if cmd.Flags().Changed("seed") {
			cfg.Search.Seed = flagSeed
		}
		if cmd.Flags().Changed("runs") {
			cfg.Search.Runs = flagRuns
		}
		if cmd.Flags().Changed("csv-dir") {
			cfg.Telemetry.CSVDir = flagCSVDir
		}
		if cmd.Flags().Changed("postgres") {
			cfg.Telemetry.PostgresURL = flagPgURL
		}
		if cmd.Flags().Changed("removal-ratio") {
			cfg.Removal.SelectionRatio = flagRemovalRatio
		}
		if cmd.Flags().Changed("removal-bias") {
			cfg.Removal.AssignmentBias = flagRemovalBias
		}
		if cmd.Flags().Changed("removal-min") {
			cfg.Removal.MinRemovals = flagRemovalMin
		}
		if cmd.Flags().Changed("removal-max") {
			cfg.Removal.MaxRemovals = flagRemovalMax
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default drones.yaml)")
	pf.StringSliceVar(&flagFiles, "file", nil, "instance file, repeatable")
	pf.StringVar(&flagPrefix, "prefix", "", "directory or path prefix for instance files")
	pf.Int64Var(&flagSeed, "seed", 0, "rng seed, 0 derives one from the clock")
	pf.IntVar(&flagRuns, "runs", 10, "independent runs per instance")
	pf.StringVar(&flagCSVDir, "csv-dir", "", "write per-run iteration traces to this directory")
	pf.StringVar(&flagPgURL, "postgres", "", "persist iteration traces to this Postgres DSN")
	pf.Float64Var(&flagRemovalRatio, "removal-ratio", 0.10, "fraction of calls a removal pass evicts")
	pf.Float64Var(&flagRemovalBias, "removal-bias", 0.25, "share of the removal budget spent on unassigned calls")
	pf.IntVar(&flagRemovalMin, "removal-min", 2, "minimum calls removed per pass")
	pf.IntVar(&flagRemovalMax, "removal-max", 12, "maximum calls removed per pass")

	rootCmd.AddCommand(alnsCmd, pooledCmd, annealCmd, localCmd, watchCmd)
}
