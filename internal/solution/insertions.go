package solution

import (
	"math"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
)

// FeasibleInsertions enumerates the (pickup, delivery) position pairs
// where a call can join a route without breaking capacity or downstream
// time windows. Candidates come from the capacity ranges, are cut off at
// the last stop that can still meet each leg's window, and survive only
// if the extra travel fits inside the minimum remaining slack at the
// pickup position.
type FeasibleInsertions struct {
	problem *problem.Problem
	vehicle model.VehicleID
	call    model.CallID

	ranges     []CapacityRange
	routeCalls []model.CallID
	sim        *SimulationResult

	rangeIdx    int
	pickupIdx   int
	deliveryIdx int

	maxPickupIdx   int
	maxDeliveryIdx int
}

// FeasibleInsertions returns an enumerator over the feasible insertion
// points for the call on the vehicle, or nil when the capacity probe
// found no room at all.
func (s *Solution) FeasibleInsertions(p *problem.Problem, call model.CallID, vehicle model.VehicleID, capacity *CapacityResult) *FeasibleInsertions {
	if capacity == nil || len(capacity.Ranges) == 0 {
		return nil
	}
	route := &s.routes[vehicle.Index()]
	sim := route.LastSimulation()
	if sim == nil {
		return nil
	}

	first := capacity.Ranges[0].Start
	return &FeasibleInsertions{
		problem:        p,
		vehicle:        vehicle,
		call:           call,
		ranges:         capacity.Ranges,
		routeCalls:     route.Calls(),
		sim:            sim,
		pickupIdx:      first,
		deliveryIdx:    first,
		maxPickupIdx:   sim.FindIndexByTime(p.PickupWindow(call).End),
		maxDeliveryIdx: sim.FindIndexByTime(p.DeliveryWindow(call).End),
	}
}

// Next yields the next feasible (pickup, delivery) pair. ok is false once
// the candidates are exhausted.
func (f *FeasibleInsertions) Next() (pickupIdx, deliveryIdx int, ok bool) {
	for {
		if f.rangeIdx >= len(f.ranges) {
			return 0, 0, false
		}
		rangeEnd := f.ranges[f.rangeIdx].End

		pickupLimit := min(rangeEnd, f.maxPickupIdx)
		if f.pickupIdx > pickupLimit {
			f.rangeIdx++
			if f.rangeIdx < len(f.ranges) {
				f.pickupIdx = f.ranges[f.rangeIdx].Start
				f.deliveryIdx = f.pickupIdx
			}
			continue
		}

		deliveryLimit := min(rangeEnd, f.maxDeliveryIdx)
		if f.deliveryIdx > deliveryLimit {
			f.pickupIdx++
			f.deliveryIdx = f.pickupIdx
			continue
		}

		pickup, delivery := f.pickupIdx, f.deliveryIdx
		f.deliveryIdx++

		if f.timeFeasible(pickup, delivery) {
			return pickup, delivery, true
		}
	}
}

// timeFeasible checks whether inserting both legs between their would-be
// neighbours fits in the slack budget at the pickup position.
func (f *FeasibleInsertions) timeFeasible(pickupIdx, deliveryIdx int) bool {
	p := f.problem

	var pNode model.NodeID
	switch {
	case pickupIdx == 0 || len(f.routeCalls) == 0:
		pNode = p.Vehicle(f.vehicle).HomeNode
	case pickupIdx <= len(f.routeCalls):
		pNode = p.Node(f.routeCalls[pickupIdx-1])
	default:
		pNode = p.Node(f.routeCalls[len(f.routeCalls)-1])
	}

	var dNode model.NodeID
	switch {
	case len(f.routeCalls) == 0 || deliveryIdx >= len(f.routeCalls):
		dNode = p.Vehicle(f.vehicle).HomeNode
	default:
		dNode = p.Node(f.routeCalls[deliveryIdx])
	}

	origTime := p.TravelTime(f.vehicle, pNode, dNode)

	pickupNode := p.OriginNode(f.call)
	deliveryNode := p.DestinationNode(f.call)
	newTime := p.TravelTime(f.vehicle, pNode, pickupNode) +
		p.ServiceTime(f.vehicle, f.call.Pickup()) +
		p.TravelTime(f.vehicle, pickupNode, deliveryNode) +
		p.ServiceTime(f.vehicle, f.call.Delivery()) +
		p.TravelTime(f.vehicle, deliveryNode, dNode)

	delta := newTime - origTime
	if delta < 0 {
		delta = 0
	}

	var available model.Time
	switch {
	case pickupIdx < len(f.sim.MinSlack):
		available = f.sim.MinSlack[pickupIdx]
	case len(f.sim.MinSlack) == 0:
		available = math.MaxInt32
	default:
		available = f.sim.MinSlack[len(f.sim.MinSlack)-1]
	}

	return delta <= available
}
