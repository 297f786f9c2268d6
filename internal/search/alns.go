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

// ScoreParams are the bonuses credited to an operator pair within a
// segment.
type ScoreParams struct {
	Improvement float64
	Best        float64
	Novelty     float64
}

// Params tune the adaptive search. DestroyFraction is the share of all
// calls evicted when the search diversifies.
type Params struct {
	MaxIterations    int
	SegmentLength    int
	Rho              float64
	FinalTemperature float64
	DestroyFraction  float64
	StagnationLimit  int
	WarmupAccept     float64
	Removal          operators.RemovalParams
	Scores           ScoreParams
}

func DefaultParams() Params {
	return Params{
		MaxIterations:    10_000,
		SegmentLength:    100,
		Rho:              0.2,
		FinalTemperature: 0.1,
		DestroyFraction:  0.5,
		StagnationLimit:  6,
		WarmupAccept:     0.8,
		Removal:          operators.DefaultRemovalParams,
		Scores:           ScoreParams{Improvement: 1, Best: 20, Novelty: 10},
	}
}

const weightFloor = 0.1

// ALNS runs an adaptive large neighborhood search over a fixed set of
// operator pairs. Pair weights start equal and are re-derived every
// segment from accumulated scores. The rng drives every stochastic
// choice, so a run is reproducible from its seed.
type ALNS struct {
	params  Params
	pairs   []operators.Pair
	weights []float64
	scores  []float64
	usage   []int
	rng     *rand.Rand
}

func NewALNS(params Params, pairs []operators.Pair, rng *rand.Rand) *ALNS {
	a := &ALNS{
		params:  params,
		pairs:   pairs,
		weights: make([]float64, len(pairs)),
		scores:  make([]float64, len(pairs)),
		usage:   make([]int, len(pairs)),
		rng:     rng,
	}
	for i := range a.weights {
		a.weights[i] = 1.0
	}
	return a
}

// Weights exposes the current pair weights, in Pairs order.
func (a *ALNS) Weights() []float64 {
	return append([]float64(nil), a.weights...)
}

// Run searches from the initial solution and returns the best feasible
// solution found with its cost.
func (a *ALNS) Run(p *problem.Problem, initial *solution.Solution, rec telemetry.Recorder) (*solution.Solution, model.Cost) {
	incumbent := initial.Clone()
	incumbentCost := incumbent.Cost(p)
	best := incumbent.Clone()
	bestCost := incumbentCost

	progress := NewProgress()
	progress.Observe(incumbent)

	var (
		temp       float64
		alpha      float64
		warm       = true
		deltaSum   float64
		deltaCount int
		stagnation int
		segment    struct {
			seenTotal int
			improved  bool
		}
	)

	for i := 0; i < a.params.MaxIterations; i++ {
		start := time.Now()

		k := roulette(a.weights, a.rng)
		pair := a.pairs[k]

		candidate := incumbent.Clone()
		removed := pair.Removal.Select(p, candidate, a.params.Removal, a.rng)
		if len(removed) == 0 {
			removed = operators.UnassignedCalls(candidate)
		}
		stats := pair.Insertion.Place(candidate, p, removed, a.rng)
		candidateCost := candidate.Cost(p)

		seen := progress.Observe(candidate)
		segment.seenTotal += seen

		a.usage[k]++
		if seen <= 1 {
			a.scores[k] += a.params.Scores.Novelty
		}

		delta := float64(candidateCost - incumbentCost)
		accepted := false
		switch {
		case delta < 0:
			a.scores[k] += a.params.Scores.Improvement
			accepted = true
		case warm:
			deltaSum += delta
			deltaCount++
			accepted = a.rng.Float64() < a.params.WarmupAccept
		default:
			accepted = a.rng.Float64() < math.Exp(-delta/temp)
		}
		if accepted {
			incumbent = candidate
			incumbentCost = candidateCost
		}

		if candidateCost < bestCost {
			best = candidate.Clone()
			bestCost = candidateCost
			a.scores[k] += a.params.Scores.Best
			progress.Improved(i, bestCost)
			segment.improved = true
		}

		if !warm {
			temp *= alpha
		}

		var temperature *float64
		if !warm {
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

		if (i+1)%a.params.SegmentLength != 0 {
			continue
		}

		if warm && deltaCount > 0 {
			remaining := a.params.MaxIterations - (i + 1)
			t0 := -(deltaSum / float64(deltaCount)) / math.Log(a.params.WarmupAccept)
			if remaining > 0 && t0 > 0 {
				alpha = math.Pow(a.params.FinalTemperature/t0, 1/float64(remaining))
				temp = t0
				warm = false
			}
		}

		a.updateWeights()

		if segment.improved {
			stagnation = 0
		} else {
			stagnation++
		}
		if stagnation >= a.params.StagnationLimit ||
			segment.seenTotal >= 3*a.params.SegmentLength {
			warm = true
			deltaSum = 0
			deltaCount = 0
			a.diversify(p, incumbent)
			incumbentCost = incumbent.Cost(p)
			stagnation = 0
		}
		segment.seenTotal = 0
		segment.improved = false
	}

	return best, bestCost
}

// updateWeights folds the segment's score-per-use into each weight and
// clears the tallies. Pairs unused this segment keep their weight.
func (a *ALNS) updateWeights() {
	for k := range a.pairs {
		if a.usage[k] == 0 {
			continue
		}
		a.weights[k] = a.weights[k]*(1-a.params.Rho) +
			a.params.Rho*(a.scores[k]/float64(a.usage[k]))
		if a.weights[k] < weightFloor {
			a.weights[k] = weightFloor
		}
		a.scores[k] = 0
		a.usage[k] = 0
	}
}

// diversify evicts a random fraction of all calls from the incumbent
// without reinserting them.
func (a *ALNS) diversify(p *problem.Problem, s *solution.Solution) {
	n := s.NumCalls()
	amount := int(math.Ceil(a.params.DestroyFraction * float64(n)))
	if amount > n {
		amount = n
	}
	for _, idx := range a.rng.Perm(n)[:amount] {
		s.RemoveCall(model.PickupCall(idx + 1))
	}
}

func roulette(weights []float64, rng *rand.Rand) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}
