package main

import (
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/janinge/drones2/internal/metrics"
	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/operators"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/search"
	"github.com/janinge/drones2/internal/solution"
	"github.com/janinge/drones2/internal/telemetry"
)

var (
	flagTimeLimit      float64
	flagT0             float64
	flagTFinal         float64
	flagPrintBestDelay time.Duration
)

const (
	pooledWarmupIterations = 100
	pooledWarmupAccept     = 0.8
	pooledChunk            = time.Second
)

var pooledCmd = &cobra.Command{
	Use:   "pooled",
	Short: "Fixed-weight annealing search under a wall-clock budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("time-limit") {
			cfg.Search.TimeLimit = flagTimeLimit
		}
		h, err := newHarness(cfg)
		if err != nil {
			return err
		}
		defer h.close()

		pairs := operators.DefaultPairs()
		removal := removalParams(cfg)

		return h.forEachInstance("pooled", func(p *problem.Problem, initial *solution.Solution,
			rng *rand.Rand, rec telemetry.Recorder) (*solution.Solution, model.Cost) {
			po := search.NewPooled(p, initial, pairs, removal, rng)

			t0 := flagT0
			if t0 <= 0 {
				t0 = po.Warmup(pooledWarmupIterations, pooledWarmupAccept)
			}
			po.SetTemperature(t0)

			// cooling is solved per second of wall clock, then
			// refined per iteration from the measured rate
			alphaPerSec := math.Pow(flagTFinal/t0, 1/cfg.Search.TimeLimit)

			printLimiter := rate.NewLimiter(rate.Every(flagPrintBestDelay), 1)
			deadline := time.Now().Add(time.Duration(cfg.Search.TimeLimit * float64(time.Second)))
			itersPerSec := 1000.0
			var lastPrinted model.Cost = p.MaxCost()

			for {
				remaining := time.Until(deadline)
				if remaining <= 0 {
					break
				}
				chunk := pooledChunk
				if remaining < chunk {
					chunk = remaining
				}
				n := int(itersPerSec * chunk.Seconds())
				if n < 1 {
					n = 1
				}
				alphaPerIter := math.Pow(alphaPerSec, 1/itersPerSec)

				took := po.Step(n, alphaPerIter, rec)
				if secs := took.Seconds(); secs > 0 {
					itersPerSec = 0.5*itersPerSec + 0.5*float64(n)/secs
				}

				if best, cost := po.Best(); cost < lastPrinted && printLimiter.Allow() {
					lastPrinted = cost
					log.Printf("best %d after %d iterations: %s",
						cost, po.Iterations(), best.FlatString(false))
				}
			}
			metrics.Iterations.WithLabelValues("pooled").Add(float64(po.Iterations()))
			return po.Best()
		})
	},
}

func init() {
	pooledCmd.Flags().Float64Var(&flagTimeLimit, "time-limit", 60, "wall-clock budget in seconds")
	pooledCmd.Flags().Float64Var(&flagT0, "t0", 0, "starting temperature, 0 derives it from a warm-up phase")
	pooledCmd.Flags().Float64Var(&flagTFinal, "t-final", 0.1, "temperature at the end of the budget")
	pooledCmd.Flags().DurationVar(&flagPrintBestDelay, "print-best-delay", 5*time.Second, "minimum delay between best-solution prints")
}
