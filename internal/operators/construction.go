package operators

import (
	"math/rand"
	"sort"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/solution"
)

// Construction builds a starting solution greedily: every vehicle sweeps
// forward in time over the window events, extending its route one stop at
// a time with a random feasible candidate, while a shared pool keeps any
// call from being picked up twice. Calls left in the pool stay unassigned.

type pendingDelivery struct {
	call     model.CallID
	deadline model.Time
}

type vehicleState struct {
	vehicle model.VehicleID
	now     model.Time
	load    model.CargoSize

	pending []pendingDelivery // sorted by deadline, then call id
	route   []model.CallID
	active  map[model.CallID]struct{}

	puEnds []problem.WindowEvent
	deEnds []problem.WindowEvent

	finished bool
}

func newVehicleState(p *problem.Problem, vehicle model.VehicleID) *vehicleState {
	now := p.Vehicle(vehicle).StartTime
	vs := &vehicleState{
		vehicle: vehicle,
		now:     now,
		active:  make(map[model.CallID]struct{}),
		puEnds:  p.PickupIndex().EndsFrom(now),
		deEnds:  p.DeliveryIndex().EndsFrom(now),
	}
	// Every window that has not already closed is a candidate; expiry is
	// handled by the end-event cursors as the clock advances.
	for _, ev := range p.PickupIndex().Starts() {
		vs.active[ev.Call] = struct{}{}
	}
	for _, ev := range p.DeliveryIndex().Starts() {
		vs.active[ev.Call.Delivery()] = struct{}{}
	}
	return vs
}

func (vs *vehicleState) expireActive() {
	for len(vs.puEnds) > 0 && vs.puEnds[0].At <= vs.now {
		delete(vs.active, vs.puEnds[0].Call)
		vs.puEnds = vs.puEnds[1:]
	}
	for len(vs.deEnds) > 0 && vs.deEnds[0].At <= vs.now {
		delete(vs.active, vs.deEnds[0].Call.Delivery())
		vs.deEnds = vs.deEnds[1:]
	}
}

func (vs *vehicleState) insertPending(call model.CallID, deadline model.Time) {
	pd := pendingDelivery{call: call, deadline: deadline}
	idx := sort.Search(len(vs.pending), func(i int) bool {
		if vs.pending[i].deadline != pd.deadline {
			return vs.pending[i].deadline > pd.deadline
		}
		return vs.pending[i].call.ID() >= pd.call.ID()
	})
	vs.pending = append(vs.pending, pendingDelivery{})
	copy(vs.pending[idx+1:], vs.pending[idx:])
	vs.pending[idx] = pd
}

func (vs *vehicleState) removePending(call model.CallID) {
	for i, pd := range vs.pending {
		if pd.call == call {
			vs.pending = append(vs.pending[:i], vs.pending[i+1:]...)
			return
		}
	}
}

func (vs *vehicleState) pendingContains(call model.CallID) bool {
	for _, pd := range vs.pending {
		if pd.call == call {
			return true
		}
	}
	return false
}

func (vs *vehicleState) lastNode(p *problem.Problem) model.NodeID {
	if len(vs.route) > 0 {
		return p.Node(vs.route[len(vs.route)-1])
	}
	return p.Vehicle(vs.vehicle).HomeNode
}

// extendOne appends one stop to the route, or marks the vehicle finished
// when neither a candidate nor a forced pending delivery fits.
func (vs *vehicleState) extendOne(p *problem.Problem, pool map[model.CallID]struct{}, rng *rand.Rand) bool {
	vs.expireActive()

	last := vs.lastNode(p)

	var earliest *pendingDelivery
	if len(vs.pending) > 0 {
		earliest = &vs.pending[0]
	}

	var cands []model.CallID
	for c := range vs.active {
		if c.IsPickup() {
			if _, ok := pool[c]; !ok {
				continue
			}
			if !p.Allowed(vs.vehicle, c) {
				continue
			}
			if model.Capacity(vs.load+p.CargoSize(c)) > p.Capacity(vs.vehicle) {
				continue
			}
			node := p.OriginNode(c)
			window := p.PickupWindow(c)
			arrival := max(vs.now+p.TravelTime(vs.vehicle, last, node), window.Start)
			if arrival > window.End {
				continue
			}
			// Taking this pickup must not strand the most urgent
			// pending delivery.
			if earliest != nil {
				departure := arrival + p.ServiceTime(vs.vehicle, c)
				pdWindow := p.DeliveryWindow(earliest.call)
				pdNode := p.DestinationNode(earliest.call)
				pdArrival := max(departure+p.TravelTime(vs.vehicle, node, pdNode), pdWindow.Start)
				if pdArrival > pdWindow.End {
					continue
				}
			}
			cands = append(cands, c)
		} else {
			if !vs.pendingContains(c) {
				continue
			}
			node := p.DestinationNode(c)
			window := p.DeliveryWindow(c)
			arrival := max(vs.now+p.TravelTime(vs.vehicle, last, node), window.Start)
			if arrival > window.End {
				continue
			}
			cands = append(cands, c)
		}
	}

	if len(cands) == 0 {
		// Force the most urgent pending delivery if it still fits.
		if earliest == nil {
			vs.finished = true
			return false
		}
		forced := earliest.call
		node := p.DestinationNode(forced)
		window := p.DeliveryWindow(forced)
		arrival := max(vs.now+p.TravelTime(vs.vehicle, last, node), window.Start)
		if arrival > window.End {
			vs.finished = true
			return false
		}
		vs.route = append(vs.route, forced)
		vs.removePending(forced)
		vs.now = arrival + p.ServiceTime(vs.vehicle, forced)
		return true
	}

	choice := cands[rng.Intn(len(cands))]
	vs.route = append(vs.route, choice)

	if choice.IsPickup() {
		vs.load += p.CargoSize(choice)
		vs.insertPending(choice.Delivery(), p.DeliveryWindow(choice).End)
		delete(pool, choice)
		vs.active[choice.Delivery()] = struct{}{}
	} else {
		vs.load -= p.CargoSize(choice)
		vs.removePending(choice)
	}

	window := p.TimeWindow(choice)
	arrival := max(vs.now+p.TravelTime(vs.vehicle, last, p.Node(choice)), window.Start)
	vs.now = arrival + p.ServiceTime(vs.vehicle, choice)
	return true
}

// Construct sweeps all vehicles in lockstep and returns one visit
// sequence per vehicle. Calls no vehicle could take are absent.
func Construct(p *problem.Problem, rng *rand.Rand) [][]model.CallID {
	states := make([]*vehicleState, p.NumVehicles())
	for i := range states {
		states[i] = newVehicleState(p, model.VehicleFromIndex(i))
	}

	pool := make(map[model.CallID]struct{}, p.NumCalls())
	for _, call := range p.Calls() {
		pool[call] = struct{}{}
	}

	for {
		progressed := false
		for _, vs := range states {
			if vs.finished {
				continue
			}
			if len(pool) == 0 && len(vs.pending) == 0 {
				continue
			}
			if vs.extendOne(p, pool, rng) {
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	routes := make([][]model.CallID, len(states))
	for i, vs := range states {
		routes[i] = vs.stripOrphans()
	}
	return routes
}

// stripOrphans drops pickups whose delivery never fit, so every returned
// route pairs both legs of each call.
func (vs *vehicleState) stripOrphans() []model.CallID {
	if len(vs.pending) == 0 {
		return vs.route
	}
	orphaned := make(map[model.CallID]bool, len(vs.pending))
	for _, pd := range vs.pending {
		orphaned[pd.call.Pickup()] = true
	}
	out := vs.route[:0]
	for _, call := range vs.route {
		if !orphaned[call.Pickup()] {
			out = append(out, call)
		}
	}
	return out
}

// Seed builds a construction solution and verifies it, falling back to
// the empty solution when the greedy sweep produced an infeasible seed.
func Seed(p *problem.Problem, rng *rand.Rand) *solution.Solution {
	s, err := solution.FromVehicleRoutes(p, Construct(p, rng))
	if err != nil || s.VerifyOrdering() != nil || s.Feasible(p) != nil {
		return solution.New(p)
	}
	return s
}
