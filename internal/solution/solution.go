package solution

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
)

var (
	ErrInvalidDeliveryIndex = errors.New("invalid delivery index")
	ErrCallNotFound         = errors.New("call not found")
	ErrVehicleOutOfBounds   = errors.New("vehicle out of bounds")
	ErrInvalidInput         = errors.New("invalid input")
)

// Solution is a full assignment of calls to vehicle routes. Calls absent
// from every route ride the dummy vehicle and pay their penalty.
type Solution struct {
	routes      []Route
	assignments []model.VehicleID // zero value means unassigned
	costs       []CallCost
}

// CallCost is the marginal detour cost of one call in its current route,
// split over the two legs.
type CallCost struct {
	Total    model.Cost
	Pickup   model.Cost
	Delivery model.Cost
}

// New returns an empty solution for the instance: every call unassigned.
func New(p *problem.Problem) *Solution {
	return FromParams(p.NumVehicles(), p.NumCalls())
}

// FromParams returns an empty solution with the given dimensions.
func FromParams(nVehicles, nCalls int) *Solution {
	return &Solution{
		routes:      make([]Route, nVehicles),
		assignments: make([]model.VehicleID, nCalls),
		costs:       make([]CallCost, nCalls),
	}
}

// FromVehicleRoutes builds a solution from explicit per-vehicle visit
// sequences. Blocks beyond the fleet size are ignored; a delivery whose
// pickup is missing or rides another vehicle is rejected.
func FromVehicleRoutes(p *problem.Problem, vehicleRoutes [][]model.CallID) (*Solution, error) {
	s := FromParams(p.NumVehicles(), p.NumCalls())

	for vehIdx, calls := range vehicleRoutes {
		if vehIdx >= p.NumVehicles() {
			continue
		}
		vehicle := model.VehicleFromIndex(vehIdx)

		route := newRoute(len(calls))
		for _, call := range calls {
			route.Push(call)
			if call.IsPickup() {
				s.assignments[call.Index()] = vehicle
				continue
			}
			assigned := s.assignments[call.Index()]
			if !assigned.Valid() {
				return nil, fmt.Errorf("%w: delivery of call %d has no pickup", ErrInvalidInput, call.ID())
			}
			if assigned != vehicle {
				return nil, fmt.Errorf("%w: call %d picked up by %v but delivered by %v",
					ErrInvalidInput, call.ID(), assigned, vehicle)
			}
		}
		s.routes[vehIdx] = route
	}
	return s, nil
}

// InsertCall places a call on a vehicle at the given logical positions.
// The call is first removed from its current vehicle if assigned.
func (s *Solution) InsertCall(vehicle model.VehicleID, call model.CallID, pickupIdx, deliveryIdx int) error {
	if deliveryIdx < pickupIdx {
		return fmt.Errorf("%w: delivery index %d before pickup index %d",
			ErrInvalidDeliveryIndex, deliveryIdx, pickupIdx)
	}
	if !vehicle.Valid() || vehicle.Index() >= len(s.routes) {
		return fmt.Errorf("%w: %v", ErrVehicleOutOfBounds, vehicle)
	}
	if s.assignments[call.Index()].Valid() {
		if _, _, _, err := s.RemoveCall(call); err != nil {
			return err
		}
	}

	s.routes[vehicle.Index()].Insert(call, pickupIdx, deliveryIdx)
	s.assignments[call.Index()] = vehicle
	return nil
}

// RemoveCall takes a call off its vehicle and returns the vehicle along
// with the logical positions the two legs held.
func (s *Solution) RemoveCall(call model.CallID) (model.VehicleID, int, int, error) {
	vehicle := s.assignments[call.Index()]
	if !vehicle.Valid() {
		return 0, -1, -1, fmt.Errorf("%w: call %d is unassigned", ErrCallNotFound, call.ID())
	}
	if vehicle.Index() >= len(s.routes) {
		return 0, -1, -1, fmt.Errorf("%w: %v", ErrVehicleOutOfBounds, vehicle)
	}

	pickupIdx, deliveryIdx := s.routes[vehicle.Index()].Remove(call)
	s.assignments[call.Index()] = 0
	return vehicle, pickupIdx, deliveryIdx, nil
}

// Route returns the compact visit sequence of a vehicle.
func (s *Solution) Route(vehicle model.VehicleID) []model.CallID {
	if vehicle.Index() >= len(s.routes) {
		return nil
	}
	return s.routes[vehicle.Index()].Calls()
}

// RouteLen returns the number of call legs on a vehicle.
func (s *Solution) RouteLen(vehicle model.VehicleID) int {
	return s.routes[vehicle.Index()].Len()
}

// IsUnassigned reports whether the call rides the dummy vehicle.
func (s *Solution) IsUnassigned(call model.CallID) bool {
	return !s.assignments[call.Index()].Valid()
}

// Assignments returns the call-to-vehicle table, indexed by call. The
// zero VehicleID marks an unassigned call. Callers must not mutate it.
func (s *Solution) Assignments() []model.VehicleID {
	return s.assignments
}

// NumCalls returns the number of calls the solution covers.
func (s *Solution) NumCalls() int { return len(s.assignments) }

// IsEmpty reports whether no vehicle serves any call.
func (s *Solution) IsEmpty() bool {
	for i := range s.routes {
		if !s.routes[i].IsEmpty() {
			return false
		}
	}
	return true
}

// CallCosts returns the marginal cost table populated by the last
// simulation pass.
func (s *Solution) CallCosts() []CallCost { return s.costs }

// Simulation returns the cached schedule for a vehicle, simulating first
// if the route was mutated since the last pass.
func (s *Solution) Simulation(p *problem.Problem, vehicle model.VehicleID) *SimulationResult {
	route := &s.routes[vehicle.Index()]
	if route.LastSimulation() == nil {
		route.Simulate(p, vehicle, s.costs)
	}
	return route.LastSimulation()
}

// FindSpareCapacity probes the vehicle's route for positions with room
// for the call's cargo. Returns the cargo weight and the accumulated
// capacity result.
func (s *Solution) FindSpareCapacity(p *problem.Problem, call model.CallID, vehicle model.VehicleID) (model.CargoSize, *CapacityResult) {
	weight := p.CargoSize(call)
	return weight, s.routes[vehicle.Index()].FindSpareCapacity(p, weight, vehicle)
}

// Feasible checks every route against the vehicle constraints, reusing
// cached simulations where present. Returns nil when the whole solution
// is feasible.
func (s *Solution) Feasible(p *problem.Problem) error {
	for i := range s.routes {
		vehicle := model.VehicleFromIndex(i)
		route := &s.routes[i]

		if sim := route.LastSimulation(); sim != nil {
			if !sim.Feasible {
				return fmt.Errorf("%w: %v infeasible at stop %d: %v",
					ErrInvalidInput, vehicle, sim.InfeasibleAt, sim.Err)
			}
			continue
		}
		if !route.Simulate(p, vehicle, s.costs) {
			sim := route.LastSimulation()
			return fmt.Errorf("%w: %v infeasible at stop %d: %v",
				ErrInvalidInput, vehicle, sim.InfeasibleAt, sim.Err)
		}
	}
	return nil
}

// Cost returns the total solution cost: travel and port costs of every
// feasible route plus the penalty of every unassigned call. Infeasible
// routes contribute nothing, so callers gate on Feasible first.
func (s *Solution) Cost(p *problem.Problem) model.Cost {
	var total model.Cost
	for i := range s.routes {
		vehicle := model.VehicleFromIndex(i)
		route := &s.routes[i]

		if sim := route.LastSimulation(); sim != nil && sim.Feasible {
			total += sim.RouteCost + sim.PortCost
			continue
		}
		if route.Simulate(p, vehicle, s.costs) {
			sim := route.LastSimulation()
			total += sim.RouteCost + sim.PortCost
		}
	}

	for i, vehicle := range s.assignments {
		if !vehicle.Valid() {
			total += p.NotTransportCost(model.PickupCall(i + 1))
		}
	}
	return total
}

// VerifyOrdering checks that every call on a route appears exactly twice,
// pickup before delivery.
func (s *Solution) VerifyOrdering() error {
	for i := range s.routes {
		calls := s.routes[i].Calls()
		first := make(map[int]model.CallID, len(calls)/2)
		last := make(map[int]model.CallID, len(calls)/2)
		count := make(map[int]int, len(calls)/2)
		for _, call := range calls {
			count[call.ID()]++
			if _, ok := first[call.ID()]; !ok {
				first[call.ID()] = call
			}
			last[call.ID()] = call
		}
		for id, n := range count {
			if n != 2 {
				return fmt.Errorf("vehicle %d: call %d appears %d times, want 2", i+1, id, n)
			}
			if !first[id].IsPickup() {
				return fmt.Errorf("vehicle %d: call %d first occurrence is not a pickup", i+1, id)
			}
			if !last[id].IsDelivery() {
				return fmt.Errorf("vehicle %d: call %d second occurrence is not a delivery", i+1, id)
			}
		}
	}
	return nil
}

// Clone deep-copies the solution. Cached simulations survive the copy so
// the clone costs nothing extra to evaluate.
func (s *Solution) Clone() *Solution {
	out := &Solution{
		routes:      make([]Route, len(s.routes)),
		assignments: append([]model.VehicleID(nil), s.assignments...),
		costs:       append([]CallCost(nil), s.costs...),
	}
	for i := range s.routes {
		out.routes[i] = s.routes[i].clone()
	}
	return out
}

// Hash fingerprints the assignment vector. Two solutions with the same
// call-to-vehicle assignment hash alike even when stop orders differ,
// which is what the duplicate-candidate tracking wants.
func (s *Solution) Hash() uint64 {
	h := fnv.New64a()
	buf := make([]byte, len(s.assignments))
	for i, v := range s.assignments {
		buf[i] = byte(v)
	}
	h.Write(buf)
	return h.Sum64()
}
