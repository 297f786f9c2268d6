package search

import (
	"math/rand"
	"time"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/operators"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/solution"
	"github.com/janinge/drones2/internal/telemetry"
)

// mutate relocates one uniformly chosen call, leaving it unassigned when
// no other feasible slot exists.
func mutate(p *problem.Problem, s *solution.Solution, rng *rand.Rand) operators.Stats {
	call := model.PickupCall(rng.Intn(s.NumCalls()) + 1)
	return operators.RandomPlacementOne{}.Place(s, p, []model.CallID{call}, rng)
}

// Local is a hill climber: each iteration mutates the best solution and
// keeps the result only when it improves.
func Local(p *problem.Problem, initial *solution.Solution, maxIterations int,
	rng *rand.Rand, rec telemetry.Recorder) (*solution.Solution, model.Cost) {
	best := initial.Clone()
	bestCost := best.Cost(p)
	progress := NewProgress()
	progress.Observe(best)

	for i := 0; i < maxIterations; i++ {
		start := time.Now()
		candidate := best.Clone()
		stats := mutate(p, candidate, rng)
		candidateCost := candidate.Cost(p)
		seen := progress.Observe(candidate)

		if candidateCost < bestCost {
			best = candidate
			bestCost = candidateCost
			progress.Improved(i, bestCost)
		}

		rec.Record(telemetry.IterationRecord{
			Iteration:     i,
			CandidateCost: candidateCost,
			CandidateSeen: seen,
			IncumbentCost: bestCost,
			BestCost:      bestCost,
			Evaluations:   stats.Evaluations,
			Infeasible:    stats.Infeasible,
			Time:          time.Since(start).Seconds(),
		})
	}
	return best, bestCost
}
