package main

import (
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/janinge/drones2/internal/metrics"
	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/operators"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/search"
	"github.com/janinge/drones2/internal/solution"
	"github.com/janinge/drones2/internal/telemetry"
)

var flagIterations int

var alnsCmd = &cobra.Command{
	Use:   "alns",
	Short: "Adaptive large neighborhood search",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("iterations") {
			cfg.Search.MaxIterations = flagIterations
		}
		h, err := newHarness(cfg)
		if err != nil {
			return err
		}
		defer h.close()

		params := searchParams(cfg)
		pairs := operators.DefaultPairs()

		return h.forEachInstance("alns", func(p *problem.Problem, initial *solution.Solution,
			rng *rand.Rand, rec telemetry.Recorder) (*solution.Solution, model.Cost) {
			a := search.NewALNS(params, pairs, rng)
			best, cost := a.Run(p, initial, rec)
			metrics.Iterations.WithLabelValues("alns").Add(float64(params.MaxIterations))
			return best, cost
		})
	},
}

func init() {
	alnsCmd.Flags().IntVar(&flagIterations, "iterations", 10_000, "iterations per run")
}
