package main

import (
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/janinge/drones2/internal/metrics"
	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/search"
	"github.com/janinge/drones2/internal/solution"
	"github.com/janinge/drones2/internal/telemetry"
)

var annealCmd = &cobra.Command{
	Use:   "anneal",
	Short: "Simulated annealing over single-call relocations",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHarness(cfg)
		if err != nil {
			return err
		}
		defer h.close()

		return h.forEachInstance("anneal", func(p *problem.Problem, initial *solution.Solution,
			rng *rand.Rand, rec telemetry.Recorder) (*solution.Solution, model.Cost) {
			best, cost := search.Annealing(p, initial, cfg.Search.MaxIterations,
				cfg.Search.FinalTemperature, rng, rec)
			metrics.Iterations.WithLabelValues("anneal").Add(float64(cfg.Search.MaxIterations))
			return best, cost
		})
	},
}

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Hill-climbing local search baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHarness(cfg)
		if err != nil {
			return err
		}
		defer h.close()

		return h.forEachInstance("local", func(p *problem.Problem, initial *solution.Solution,
			rng *rand.Rand, rec telemetry.Recorder) (*solution.Solution, model.Cost) {
			best, cost := search.Local(p, initial, cfg.Search.MaxIterations, rng, rec)
			metrics.Iterations.WithLabelValues("local").Add(float64(cfg.Search.MaxIterations))
			return best, cost
		})
	},
}
