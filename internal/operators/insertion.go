package operators

import (
	"log"
	"math/rand"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/solution"
)

// RandomPlacementAll evicts every given call up front, then reinserts
// each at a random feasible position. Calls that find no home stay
// unassigned.
type RandomPlacementAll struct{}

func (RandomPlacementAll) Name() string { return "random_placement_all" }

func (RandomPlacementAll) Place(s *solution.Solution, p *problem.Problem, calls []model.CallID, rng *rand.Rand) Stats {
	var stats Stats

	for _, call := range calls {
		s.RemoveCall(call)
	}
	for _, call := range calls {
		attemptInsert(s, p, call, noOrigin, rng, &stats)
	}
	return stats
}

// RandomPlacementOne relocates a single call: it tries each given call in
// turn, removing only that call and searching for a placement other than
// its original slot, reinstating it on failure. If no call can move, the
// first one is left unassigned.
type RandomPlacementOne struct{}

func (RandomPlacementOne) Name() string { return "random_placement_one" }

func (RandomPlacementOne) Place(s *solution.Solution, p *problem.Problem, calls []model.CallID, rng *rand.Rand) Stats {
	var stats Stats
	if len(calls) == 0 {
		return stats
	}

	for _, call := range calls {
		origin := noOrigin
		if vehicle, pickup, delivery, err := s.RemoveCall(call); err == nil {
			origin = originSlot{vehicle: vehicle, pickup: pickup, delivery: delivery}
		}

		if attemptInsert(s, p, call, origin, rng, &stats) {
			return stats
		}
		if origin.vehicle.Valid() && origin.pickup >= 0 && origin.delivery >= 0 {
			if err := s.InsertCall(origin.vehicle, call, origin.pickup, origin.delivery); err != nil {
				log.Printf("reinsert %v into %v at (%d, %d) failed: %v",
					call, origin.vehicle, origin.pickup, origin.delivery, err)
			}
		}
	}

	// Nothing moved; unassign the first call so the pass still perturbs.
	s.RemoveCall(calls[0])
	return stats
}

type originSlot struct {
	vehicle  model.VehicleID
	pickup   int
	delivery int
}

var noOrigin = originSlot{pickup: -1, delivery: -1}

// attemptInsert tries the call at shuffled feasible insertion points over
// shuffled compatible vehicles, skipping the exact origin slot, until one
// placement verifies as feasible.
func attemptInsert(s *solution.Solution, p *problem.Problem, call model.CallID,
	origin originSlot, rng *rand.Rand, stats *Stats) bool {
	vehicles := append([]model.VehicleID(nil), p.CompatibleVehicles(call)...)
	rng.Shuffle(len(vehicles), func(a, b int) {
		vehicles[a], vehicles[b] = vehicles[b], vehicles[a]
	})

	for _, vehicle := range vehicles {
		_, capacity := s.FindSpareCapacity(p, call, vehicle)
		iter := s.FeasibleInsertions(p, call, vehicle, capacity)
		if iter == nil {
			continue
		}

		var points [][2]int
		for {
			pickup, delivery, ok := iter.Next()
			if !ok {
				break
			}
			points = append(points, [2]int{pickup, delivery})
		}
		rng.Shuffle(len(points), func(a, b int) {
			points[a], points[b] = points[b], points[a]
		})

		for _, point := range points {
			stats.Evaluations++
			if origin.vehicle == vehicle && origin.pickup == point[0] && origin.delivery == point[1] {
				continue
			}
			if err := s.InsertCall(vehicle, call, point[0], point[1]); err != nil {
				continue
			}
			if err := s.Feasible(p); err != nil {
				s.RemoveCall(call)
				stats.Infeasible++
				continue
			}
			return true
		}
	}
	return false
}
