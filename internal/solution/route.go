// Package solution holds the mutable solution representation: per-vehicle
// routes with cached schedule simulations, the call-to-vehicle assignment
// table, and the feasible-insertion enumerator the operators draw from.
package solution

import (
	"fmt"
	"slices"
	"sort"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
)

// Route is one vehicle's visit sequence. Removals leave holes (zero
// CallIDs) instead of shifting the tail; the holes are squeezed out
// lazily, so the slice length can exceed the logical length.
type Route struct {
	calls  []model.CallID
	length int
	sim    *SimulationResult
}

// SimulationResult is the cached schedule of one route. The per-stop
// slices are indexed by logical position and are truncated at the first
// violation when the route is infeasible.
type SimulationResult struct {
	Times   []model.Time
	Waiting []model.Time
	Slack   []model.Time
	// MinSlack[i] is the least schedule slack over stops i..end, the
	// budget an insertion at i may consume without breaking a window.
	MinSlack []model.Time
	Loads    []model.Capacity

	Capacity *CapacityResult

	RouteCost model.Cost
	PortCost  model.Cost

	Feasible     bool
	InfeasibleAt int // stop index of the violation, -1 when feasible
	Err          error
}

// CapacityResult accumulates the spare-capacity probes run against one
// simulation. Ranges are inclusive position intervals where the probed
// cargo fits.
type CapacityResult struct {
	CheckedMin model.Capacity
	Ranges     []CapacityRange
}

// CapacityRange is an inclusive run of insertion positions, tagged with
// the capacity of the vehicle it was probed against.
type CapacityRange struct {
	Capacity model.Capacity
	Start    int
	End      int
}

// FindIndexByTime returns the first stop whose completion time is at or
// after target.
func (s *SimulationResult) FindIndexByTime(target model.Time) int {
	return sort.Search(len(s.Times), func(i int) bool { return s.Times[i] >= target })
}

func newRoute(capacity int) Route {
	return Route{calls: make([]model.CallID, 0, capacity)}
}

// Push appends a call leg to the end of the route.
func (r *Route) Push(call model.CallID) {
	r.calls = append(r.calls, call)
	r.length++
	r.sim = nil
}

// Insert places both legs of a call at the given logical positions. The
// delivery goes in first so the pickup index is unaffected by the shift;
// equal indices therefore still order pickup before delivery.
func (r *Route) Insert(call model.CallID, pickupIdx, deliveryIdx int) {
	realPickup, realDelivery := r.logicalToReal(pickupIdx, deliveryIdx)

	r.insertSingle(call.Delivery(), realDelivery)
	r.insertSingle(call.Pickup(), realPickup)

	r.length += 2
	r.sim = nil
}

func (r *Route) insertSingle(call model.CallID, idx int) {
	if idx >= len(r.calls) {
		r.calls = append(r.calls, call)
		return
	}
	r.calls = slices.Insert(r.calls, idx, call)
}

// Remove blanks both legs of a call, leaving holes. It returns the
// logical positions the legs occupied, counted over the surviving stops,
// or -1 for a leg that was not present.
func (r *Route) Remove(call model.CallID) (pickupIdx, deliveryIdx int) {
	pickupIdx, deliveryIdx = -1, -1
	logical := 0
	for i, c := range r.calls {
		if c.Valid() && c.ID() == call.ID() {
			if pickupIdx < 0 {
				pickupIdx = logical
				r.calls[i] = 0
			} else {
				deliveryIdx = logical
				r.calls[i] = 0
				break
			}
		}
		if r.calls[i].Valid() {
			logical++
		}
	}
	if pickupIdx >= 0 {
		r.length--
	}
	if deliveryIdx >= 0 {
		r.length--
	}
	r.sim = nil
	return pickupIdx, deliveryIdx
}

// Calls returns the compact visit sequence as a fresh slice.
func (r *Route) Calls() []model.CallID {
	out := make([]model.CallID, 0, r.length)
	for _, c := range r.calls {
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// compact squeezes the holes out of the backing slice in place.
func (r *Route) compact() {
	if r.isCompact() {
		return
	}
	write := 0
	for _, c := range r.calls {
		if c.Valid() {
			r.calls[write] = c
			write++
		}
	}
	r.calls = r.calls[:write]
}

// IsEmpty reports whether the route visits no stops.
func (r *Route) IsEmpty() bool { return r.length == 0 }

func (r *Route) isCompact() bool { return r.length == len(r.calls) }

// Len returns the number of call legs in the route.
func (r *Route) Len() int { return r.length }

// LastSimulation returns the cached schedule, or nil if the route was
// mutated since the last Simulate.
func (r *Route) LastSimulation() *SimulationResult { return r.sim }

// Simulate walks the route for the given vehicle and caches the schedule:
// cumulative times, waiting, slack, loads and costs. The walk stops at the
// first violated constraint and marks the route infeasible. When costs is
// non-nil, each call's marginal detour cost is written into it. Returns
// whether the route is feasible.
func (r *Route) Simulate(p *problem.Problem, vehicle model.VehicleID, costs []CallCost) bool {
	if r.IsEmpty() {
		r.sim = &SimulationResult{Feasible: true, InfeasibleAt: -1}
		return true
	}

	veh := p.Vehicle(vehicle)
	maxCapacity := veh.Capacity

	previousNode := veh.HomeNode
	currentTime := veh.StartTime
	var currentLoad model.Capacity
	var routeCost, portCost model.Cost

	n := r.Len()
	times := make([]model.Time, 0, n)
	waiting := make([]model.Time, 0, n)
	slack := make([]model.Time, 0, n)
	loads := make([]model.Capacity, 0, n)

	feasible := true
	infeasibleAt := -1
	var simErr error

	calls := r.Calls()
	for i, call := range calls {
		if !p.Allowed(vehicle, call) {
			feasible = false
			simErr = fmt.Errorf("%v not allowed to serve %v", vehicle, call)
			infeasibleAt = i
			break
		}

		callNode := p.Node(call)
		if call.IsDelivery() {
			portCost += p.PortCost(vehicle, call)
		}

		if costs != nil {
			recordMarginalCost(p, costs, vehicle, calls, i, previousNode, callNode)
		}

		routeCost += p.TravelCost(vehicle, previousNode, callNode)
		currentTime += p.TravelTime(vehicle, previousNode, callNode)
		previousNode = callNode

		size := model.Capacity(p.CargoSize(call))
		if call.IsPickup() {
			currentLoad += size
		} else {
			currentLoad -= size
		}
		if currentLoad > maxCapacity {
			feasible = false
			simErr = fmt.Errorf("capacity exceeded on %v: load %d > capacity %d",
				call, currentLoad, maxCapacity)
			infeasibleAt = i
			break
		}
		loads = append(loads, currentLoad)

		window := p.TimeWindow(call)
		slackTime := window.End - currentTime
		slack = append(slack, slackTime)
		waitingTime := window.Start - currentTime
		waiting = append(waiting, waitingTime)

		if waitingTime > 0 {
			currentTime = window.Start
		} else if slackTime < 0 {
			feasible = false
			simErr = fmt.Errorf("time window violated on %v: time %d outside [%d, %d]",
				call, currentTime, window.Start, window.End)
			infeasibleAt = i
			break
		}

		currentTime += p.ServiceTime(vehicle, call)
		times = append(times, currentTime)
	}

	r.sim = &SimulationResult{
		Times:        times,
		Waiting:      waiting,
		Slack:        slack,
		MinSlack:     minRemainingSlack(slack, waiting),
		Loads:        loads,
		RouteCost:    routeCost,
		PortCost:     portCost,
		Feasible:     feasible,
		InfeasibleAt: infeasibleAt,
		Err:          simErr,
	}
	return feasible
}

// recordMarginalCost writes the detour cost of serving stop i into the
// per-call cost table: the cost through the stop minus the direct cost
// between its neighbours, with the depot standing in at the route ends.
func recordMarginalCost(p *problem.Problem, costs []CallCost, vehicle model.VehicleID,
	calls []model.CallID, i int, prevNode, callNode model.NodeID) {
	call := calls[i]

	var cost model.Cost
	switch {
	case i == len(calls)-1:
		cost = p.TravelCost(vehicle, prevNode, callNode)
	default:
		nextNode := p.Node(calls[i+1])
		through := p.TravelCost(vehicle, prevNode, callNode) +
			p.TravelCost(vehicle, callNode, nextNode)
		cost = through - p.TravelCost(vehicle, prevNode, nextNode)
	}

	idx := call.Index()
	if call.IsPickup() {
		costs[idx].Pickup = cost
	} else {
		costs[idx].Delivery = cost
		costs[idx].Total = costs[idx].Pickup + cost
	}
}

// minRemainingSlack runs the backward pass over slack: position i gets the
// tightest slack from i to the end, credited with downstream waiting since
// a delay can be absorbed by a stop that would otherwise idle.
func minRemainingSlack(slack, waiting []model.Time) []model.Time {
	n := len(slack)
	out := make([]model.Time, n)
	if n == 0 {
		return out
	}
	out[n-1] = slack[n-1]
	for i := n - 2; i >= 0; i-- {
		if waiting[i+1] > 0 {
			out[i] = min(slack[i], out[i+1]+waiting[i+1])
		} else {
			out[i] = min(slack[i], out[i+1])
		}
	}
	return out
}

// FindSpareCapacity probes the cached schedule for the positions where a
// cargo of the given weight fits, merging consecutive positions into
// inclusive ranges. Position 0 is before the first stop, position i+1 is
// after stop i, and the end of the route is always considered. The probe
// is appended to the simulation's CapacityResult.
func (r *Route) FindSpareCapacity(p *problem.Problem, weight model.CargoSize, vehicle model.VehicleID) *CapacityResult {
	if r.sim == nil {
		r.Simulate(p, vehicle, nil)
	}
	sim := r.sim
	vehicleCapacity := p.Capacity(vehicle)

	var indices []int
	if vehicleCapacity >= model.Capacity(weight) {
		indices = append(indices, 0)
	}
	for i, load := range sim.Loads {
		if vehicleCapacity-load >= model.Capacity(weight) {
			indices = append(indices, i+1)
		}
	}
	if len(sim.Loads) > 0 && vehicleCapacity >= model.Capacity(weight) {
		last := len(sim.Loads)
		if indices[len(indices)-1] != last {
			indices = append(indices, last)
		}
	}

	var ranges []CapacityRange
	if len(indices) > 0 {
		start, end := indices[0], indices[0]
		for _, idx := range indices[1:] {
			if idx == end+1 {
				end = idx
				continue
			}
			ranges = append(ranges, CapacityRange{Capacity: vehicleCapacity, Start: start, End: end})
			start, end = idx, idx
		}
		ranges = append(ranges, CapacityRange{Capacity: vehicleCapacity, Start: start, End: end})
	}

	if sim.Capacity == nil {
		sim.Capacity = &CapacityResult{CheckedMin: vehicleCapacity, Ranges: ranges}
	} else {
		sim.Capacity.CheckedMin = min(sim.Capacity.CheckedMin, vehicleCapacity)
		sim.Capacity.Ranges = append(sim.Capacity.Ranges, ranges...)
	}
	return sim.Capacity
}

// logicalToReal maps logical positions (over surviving stops) to indices
// in the sparse backing slice. Positions past the end map to the slice
// length, which appends.
func (r *Route) logicalToReal(logicalPickup, logicalDelivery int) (int, int) {
	if r.isCompact() {
		return logicalPickup, logicalDelivery
	}

	realPickup, realDelivery := len(r.calls), len(r.calls)
	logical := 0
	for i, c := range r.calls {
		if !c.Valid() {
			continue
		}
		if logical == logicalPickup && realPickup == len(r.calls) {
			realPickup = i
		}
		if logical == logicalDelivery {
			realDelivery = i
			break
		}
		logical++
	}
	return realPickup, realDelivery
}

// clone deep-copies the route. The cached simulation's per-stop slices are
// shared since a new Simulate always allocates fresh ones; the capacity
// probe is copied because probes append to it in place.
func (r *Route) clone() Route {
	out := Route{
		calls:  slices.Clone(r.calls),
		length: r.length,
	}
	if r.sim != nil {
		sim := *r.sim
		if sim.Capacity != nil {
			cap := *sim.Capacity
			cap.Ranges = slices.Clone(cap.Ranges)
			sim.Capacity = &cap
		}
		out.sim = &sim
	}
	return out
}
