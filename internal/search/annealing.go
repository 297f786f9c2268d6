package search

import (
	"math"
	"math/rand"
	"time"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/solution"
	"github.com/janinge/drones2/internal/telemetry"
)

const (
	annealWarmupIterations = 100
	annealWarmupAccept     = 0.8
)

// Annealing is plain simulated annealing over single-call relocations.
// A fixed warm-up phase accepts worsening moves with constant
// probability while averaging their deltas; the average sets the
// starting temperature for the cooled phase.
func Annealing(p *problem.Problem, initial *solution.Solution, maxIterations int,
	finalTemperature float64, rng *rand.Rand, rec telemetry.Recorder) (*solution.Solution, model.Cost) {
	incumbent := initial.Clone()
	incumbentCost := incumbent.Cost(p)
	best := incumbent.Clone()
	bestCost := incumbentCost

	progress := NewProgress()
	progress.Observe(incumbent)

	warmup := annealWarmupIterations
	if warmup > maxIterations {
		warmup = maxIterations
	}

	var deltaSum float64
	var deltaCount int
	var temp, alpha float64

	for i := 0; i < maxIterations; i++ {
		start := time.Now()
		candidate := incumbent.Clone()
		stats := mutate(p, candidate, rng)
		candidateCost := candidate.Cost(p)
		seen := progress.Observe(candidate)

		delta := float64(candidateCost - incumbentCost)
		accepted := false
		switch {
		case delta < 0:
			accepted = true
		case i < warmup:
			deltaSum += delta
			deltaCount++
			accepted = rng.Float64() < annealWarmupAccept
		default:
			accepted = rng.Float64() < math.Exp(-delta/temp)
		}
		if accepted {
			incumbent = candidate
			incumbentCost = candidateCost
		}
		if candidateCost < bestCost {
			best = candidate.Clone()
			bestCost = candidateCost
			progress.Improved(i, bestCost)
		}

		var temperature *float64
		if i >= warmup {
			temp *= alpha
			t := temp
			temperature = &t
		}
		rec.Record(telemetry.IterationRecord{
			Iteration:     i,
			CandidateCost: candidateCost,
			CandidateSeen: seen,
			IncumbentCost: incumbentCost,
			BestCost:      bestCost,
			Evaluations:   stats.Evaluations,
			Infeasible:    stats.Infeasible,
			Time:          time.Since(start).Seconds(),
			Temperature:   temperature,
		})

		if i+1 == warmup && maxIterations > warmup {
			t0 := 1.0
			if deltaCount > 0 {
				if derived := -(deltaSum / float64(deltaCount)) / math.Log(annealWarmupAccept); derived > 0 {
					t0 = derived
				}
			}
			alpha = math.Pow(finalTemperature/t0, 1/float64(maxIterations-warmup))
			temp = t0
		}
	}
	return best, bestCost
}
