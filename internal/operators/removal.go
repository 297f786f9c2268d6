package operators

import (
	"math/rand"
	"sort"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/solution"
)

// Random evicts a uniform sample of calls without replacement, assigned
// or not.
type Random struct{}

func (Random) Name() string { return "random" }

func (Random) Select(p *problem.Problem, s *solution.Solution, params RemovalParams, rng *rand.Rand) []model.CallID {
	return randomCalls(s, params.budget(s.NumCalls()), rng)
}

func randomCalls(s *solution.Solution, amount int, rng *rand.Rand) []model.CallID {
	n := s.NumCalls()
	if amount > n {
		amount = n
	}
	out := make([]model.CallID, 0, amount)
	for _, idx := range rng.Perm(n)[:amount] {
		out = append(out, model.PickupCall(idx+1))
	}
	return out
}

// CombinedCost mixes currently-unassigned calls with the costliest
// assigned calls by marginal cost. AssignmentBias sets the share of the
// budget spent on unassigned calls; Randomness occasionally swaps a
// guided pick for a uniform one.
type CombinedCost struct{}

func (CombinedCost) Name() string { return "combined_cost" }

func (CombinedCost) Select(p *problem.Problem, s *solution.Solution, params RemovalParams, rng *rand.Rand) []model.CallID {
	budget := params.budget(s.NumCalls())

	var unassigned, assigned []model.CallID
	for i, vehicle := range s.Assignments() {
		call := model.PickupCall(i + 1)
		if vehicle.Valid() {
			assigned = append(assigned, call)
		} else {
			unassigned = append(unassigned, call)
		}
	}

	// rank assigned calls by marginal cost, washed out by noise as
	// CostBias drops toward zero
	costs := s.CallCosts()
	var maxCost model.Cost = 1
	for _, call := range assigned {
		if c := costs[call.Index()].Total; c > maxCost {
			maxCost = c
		}
	}
	rank := make(map[model.CallID]float64, len(assigned))
	for _, call := range assigned {
		rank[call] = params.CostBias*float64(costs[call.Index()].Total)/float64(maxCost) +
			(1-params.CostBias)*rng.Float64()
	}
	sort.Slice(assigned, func(a, b int) bool {
		return rank[assigned[a]] > rank[assigned[b]]
	})

	fromUnassigned := int(float64(budget) * params.AssignmentBias)
	if fromUnassigned > len(unassigned) {
		fromUnassigned = len(unassigned)
	}

	picked := make([]model.CallID, 0, budget)
	rng.Shuffle(len(unassigned), func(a, b int) {
		unassigned[a], unassigned[b] = unassigned[b], unassigned[a]
	})
	picked = append(picked, unassigned[:fromUnassigned]...)

	next := 0
	for len(picked) < budget && next < len(assigned) {
		if params.Randomness > 0 && rng.Float64() < params.Randomness {
			picked = append(picked, assigned[next+rng.Intn(len(assigned)-next)])
		} else {
			picked = append(picked, assigned[next])
		}
		next++
	}

	rng.Shuffle(len(picked), func(a, b int) {
		picked[a], picked[b] = picked[b], picked[a]
	})
	return dedupeCalls(picked)
}

// BrokenVehicle evicts one random vehicle's entire route, retrying a few
// times to land on a non-empty one.
type BrokenVehicle struct{}

func (BrokenVehicle) Name() string { return "broken_vehicle" }

const brokenVehicleRetries = 3

func (BrokenVehicle) Select(p *problem.Problem, s *solution.Solution, params RemovalParams, rng *rand.Rand) []model.CallID {
	for attempt := 0; attempt < brokenVehicleRetries; attempt++ {
		vehicle := model.VehicleFromIndex(rng.Intn(p.NumVehicles()))
		calls := s.Route(vehicle)
		if len(calls) == 0 {
			continue
		}
		out := make([]model.CallID, 0, len(calls)/2)
		for _, call := range calls {
			if call.IsPickup() {
				out = append(out, call)
			}
		}
		return out
	}
	return nil
}

// GlobalWaiting aggregates waiting time per call across every route and
// evicts the calls that idle the longest, up to the removal budget.
type GlobalWaiting struct{}

func (GlobalWaiting) Name() string { return "global_waiting" }

func (GlobalWaiting) Select(p *problem.Problem, s *solution.Solution, params RemovalParams, rng *rand.Rand) []model.CallID {
	type callWaiting struct {
		call    model.CallID
		waiting model.Time
	}
	totals := make(map[model.CallID]model.Time)

	for v := 0; v < p.NumVehicles(); v++ {
		vehicle := model.VehicleFromIndex(v)
		calls := s.Route(vehicle)
		if len(calls) == 0 {
			continue
		}
		sim := s.Simulation(p, vehicle)
		for i, w := range sim.Waiting {
			if w > 0 && i < len(calls) {
				totals[calls[i].Pickup()] += w
			}
		}
	}

	ranked := make([]callWaiting, 0, len(totals))
	for call, w := range totals {
		ranked = append(ranked, callWaiting{call: call, waiting: w})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].waiting != ranked[b].waiting {
			return ranked[a].waiting > ranked[b].waiting
		}
		return ranked[a].call.ID() < ranked[b].call.ID()
	})

	budget := params.budget(s.NumCalls())
	if budget > len(ranked) {
		budget = len(ranked)
	}
	out := make([]model.CallID, budget)
	for i := range out {
		out[i] = ranked[i].call
	}
	return out
}

func dedupeCalls(calls []model.CallID) []model.CallID {
	seen := make(map[model.CallID]bool, len(calls))
	out := calls[:0]
	for _, c := range calls {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
