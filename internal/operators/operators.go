// Package operators implements the ruin-and-recreate moves the search
// engines draw from: removal strategies that pick calls to evict and
// insertion strategies that find them new feasible placements.
package operators

import (
	"math/rand"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/solution"
)

// Removal selects calls to evict from a solution. An empty result is a
// valid outcome; callers fall back to targeting unassigned calls.
type Removal interface {
	Name() string
	Select(p *problem.Problem, s *solution.Solution, params RemovalParams, rng *rand.Rand) []model.CallID
}

// Insertion relocates the given calls to new feasible positions. Calls
// that find no placement stay unassigned.
type Insertion interface {
	Name() string
	Place(s *solution.Solution, p *problem.Problem, calls []model.CallID, rng *rand.Rand) Stats
}

// Stats counts the insertion points a placement pass touched.
type Stats struct {
	Evaluations int
	Infeasible  int
}

// Add accumulates counts from another pass.
func (s *Stats) Add(other Stats) {
	s.Evaluations += other.Evaluations
	s.Infeasible += other.Infeasible
}

// Pair couples one removal strategy with one insertion strategy. The
// search engines select whole pairs.
type Pair struct {
	Removal   Removal
	Insertion Insertion
}

// Name returns a stable "removal/insertion" label for the pair.
func (p Pair) Name() string { return p.Removal.Name() + "/" + p.Insertion.Name() }

// Removals returns the full removal strategy set.
func Removals() []Removal {
	return []Removal{
		CombinedCost{},
		BrokenVehicle{},
		GlobalWaiting{},
		Random{},
	}
}

// Insertions returns the full insertion strategy set.
func Insertions() []Insertion {
	return []Insertion{
		RandomPlacementAll{},
		RandomPlacementOne{},
	}
}

// Pairs builds the cross product of the removal and insertion sets.
func Pairs(removals []Removal, insertions []Insertion) []Pair {
	out := make([]Pair, 0, len(removals)*len(insertions))
	for _, r := range removals {
		for _, i := range insertions {
			out = append(out, Pair{Removal: r, Insertion: i})
		}
	}
	return out
}

// DefaultPairs is the operator set the stock search configurations use.
func DefaultPairs() []Pair {
	return Pairs(Removals(), Insertions())
}

// UnassignedCalls lists every call without a vehicle, the fallback
// target when a removal pass comes up empty.
func UnassignedCalls(s *solution.Solution) []model.CallID {
	var out []model.CallID
	for i, vehicle := range s.Assignments() {
		if !vehicle.Valid() {
			out = append(out, model.PickupCall(i+1))
		}
	}
	return out
}
