package search

import (
	"math"
	"math/rand"
	"time"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/operators"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/solution"
	"github.com/janinge/drones2/internal/telemetry"
)

// Pooled is the fixed-weight variant: operator pairs are drawn uniformly
// and acceptance is pure simulated annealing. The caller owns the cooling
// schedule and drives the search in chunks, so a wall-clock driver can
// re-estimate its iteration rate between chunks.
type Pooled struct {
	problem   *problem.Problem
	pairs     []operators.Pair
	removal   operators.RemovalParams
	rng       *rand.Rand
	progress  *Progress
	iteration int

	incumbent     *solution.Solution
	incumbentCost model.Cost
	best          *solution.Solution
	bestCost      model.Cost
	temp          float64
}

func NewPooled(p *problem.Problem, initial *solution.Solution,
	pairs []operators.Pair, removal operators.RemovalParams, rng *rand.Rand) *Pooled {
	incumbent := initial.Clone()
	cost := incumbent.Cost(p)
	po := &Pooled{
		problem:       p,
		pairs:         pairs,
		removal:       removal,
		rng:           rng,
		progress:      NewProgress(),
		incumbent:     incumbent,
		incumbentCost: cost,
		best:          incumbent.Clone(),
		bestCost:      cost,
	}
	po.progress.Observe(incumbent)
	return po
}

// Warmup runs a short acceptance-blind phase and derives a starting
// temperature from the worsening moves it saw.
func (po *Pooled) Warmup(iterations int, accept float64) float64 {
	var deltaSum float64
	var deltaCount int

	for i := 0; i < iterations; i++ {
		candidate, candidateCost, _ := po.candidate()
		delta := float64(candidateCost - po.incumbentCost)
		switch {
		case delta < 0:
			po.accept(candidate, candidateCost)
		default:
			deltaSum += delta
			deltaCount++
			if po.rng.Float64() < accept {
				po.accept(candidate, candidateCost)
			}
		}
	}
	if deltaCount == 0 {
		return 1.0
	}
	t0 := -(deltaSum / float64(deltaCount)) / math.Log(accept)
	if t0 <= 0 {
		return 1.0
	}
	return t0
}

func (po *Pooled) SetTemperature(t float64) { po.temp = t }
func (po *Pooled) Temperature() float64     { return po.temp }

// Step runs n iterations, cooling by alpha per iteration, and reports
// how long the chunk took.
func (po *Pooled) Step(n int, alpha float64, rec telemetry.Recorder) time.Duration {
	started := time.Now()
	for i := 0; i < n; i++ {
		iterStart := time.Now()
		candidate, candidateCost, stats := po.candidate()
		seen := po.progress.Observe(candidate)

		delta := float64(candidateCost - po.incumbentCost)
		if delta < 0 || po.rng.Float64() < math.Exp(-delta/po.temp) {
			po.accept(candidate, candidateCost)
		}
		po.temp *= alpha

		t := po.temp
		rec.Record(telemetry.IterationRecord{
			Iteration:     po.iteration,
			CandidateCost: candidateCost,
			CandidateSeen: seen,
			IncumbentCost: po.incumbentCost,
			BestCost:      po.bestCost,
			Evaluations:   stats.Evaluations,
			Infeasible:    stats.Infeasible,
			Time:          time.Since(iterStart).Seconds(),
			Temperature:   &t,
		})
		po.iteration++
	}
	return time.Since(started)
}

func (po *Pooled) candidate() (*solution.Solution, model.Cost, operators.Stats) {
	pair := po.pairs[po.rng.Intn(len(po.pairs))]
	candidate := po.incumbent.Clone()
	removed := pair.Removal.Select(po.problem, candidate, po.removal, po.rng)
	if len(removed) == 0 {
		removed = operators.UnassignedCalls(candidate)
	}
	stats := pair.Insertion.Place(candidate, po.problem, removed, po.rng)
	return candidate, candidate.Cost(po.problem), stats
}

func (po *Pooled) accept(candidate *solution.Solution, cost model.Cost) {
	po.incumbent = candidate
	po.incumbentCost = cost
	if cost < po.bestCost {
		po.best = candidate.Clone()
		po.bestCost = cost
		po.progress.Improved(po.iteration, cost)
	}
}

// Best returns the best solution found so far and its cost.
func (po *Pooled) Best() (*solution.Solution, model.Cost) {
	return po.best, po.bestCost
}

// Iterations reports how many cooled iterations have run.
func (po *Pooled) Iterations() int { return po.iteration }
