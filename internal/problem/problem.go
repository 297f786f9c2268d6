package problem

import (
	"math"

	"github.com/janinge/drones2/internal/model"
)

// Vehicle describes a single vehicle of the fleet.
type Vehicle struct {
	HomeNode  model.NodeID
	StartTime model.Time
	Capacity  model.Capacity
}

// Call is a pickup-and-delivery request between two nodes.
type Call struct {
	Origin           model.NodeID
	Destination      model.NodeID
	Size             model.CargoSize
	NotTransportCost model.Cost
	PickupWindow     model.Window
	DeliveryWindow   model.Window
}

// Problem is an immutable PDPTW instance. All lookups are O(1) slice reads
// except CompatibleVehicles, which returns a precomputed slice.
type Problem struct {
	nodes    int
	vehicles []Vehicle
	calls    []Call

	travelTime    Table3[model.Time]
	travelCost    Table3[model.Cost]
	allowed       Table2[bool]
	loadingTime   Table2[model.Time]
	unloadingTime Table2[model.Time]
	portCost      Table2[model.Cost]

	compatible [][]model.VehicleID
	pickups    WindowIndex
	deliveries WindowIndex
}

// New constructs a Problem with zeroed travel and service tables. Callers
// fill the tables with the Set* methods and must call Rebuild before using
// the compatibility index or the window indexes.
func New(nodes int, vehicles []Vehicle, calls []Call) *Problem {
	nv := len(vehicles)
	nc := len(calls)
	return &Problem{
		nodes:         nodes,
		vehicles:      vehicles,
		calls:         calls,
		travelTime:    NewTable3[model.Time](nv, nodes, nodes),
		travelCost:    NewTable3[model.Cost](nv, nodes, nodes),
		allowed:       NewTable2[bool](nv, nc),
		loadingTime:   NewTable2[model.Time](nv, nc),
		unloadingTime: NewTable2[model.Time](nv, nc),
		portCost:      NewTable2[model.Cost](nv, nc),
	}
}

// SetTravel stores the travel time and cost for one vehicle leg.
func (p *Problem) SetTravel(v model.VehicleID, from, to model.NodeID, t model.Time, c model.Cost) {
	p.travelTime.Set(v.Index(), int(from), int(to), t)
	p.travelCost.Set(v.Index(), int(from), int(to), c)
}

// SetService stores the load/unload durations and the port cost for a
// vehicle-call pair.
func (p *Problem) SetService(v model.VehicleID, c model.CallID, load, unload model.Time, port model.Cost) {
	p.loadingTime.Set(v.Index(), c.Index(), load)
	p.unloadingTime.Set(v.Index(), c.Index(), unload)
	p.portCost.Set(v.Index(), c.Index(), port)
}

// SetAllowed marks a vehicle-call pair as compatible.
func (p *Problem) SetAllowed(v model.VehicleID, c model.CallID) {
	p.allowed.Set(v.Index(), c.Index(), true)
}

// AllowAll marks every vehicle-call pair as compatible.
func (p *Problem) AllowAll() {
	for v := range p.vehicles {
		for c := range p.calls {
			p.allowed.Set(v, c, true)
		}
	}
}

// Rebuild recomputes the compatibility lists and the pickup/delivery window
// indexes from the current tables. Must be called after the tables change.
func (p *Problem) Rebuild() {
	p.compatible = make([][]model.VehicleID, len(p.calls))
	for c := range p.calls {
		var vs []model.VehicleID
		for v := range p.vehicles {
			if p.allowed.At(v, c) {
				vs = append(vs, model.VehicleFromIndex(v))
			}
		}
		p.compatible[c] = vs
	}

	pu := make([]model.Window, len(p.calls))
	de := make([]model.Window, len(p.calls))
	for c, call := range p.calls {
		pu[c] = call.PickupWindow
		de[c] = call.DeliveryWindow
	}
	p.pickups = newWindowIndex(pu)
	p.deliveries = newWindowIndex(de)
}

// NumNodes returns the node count of the instance.
func (p *Problem) NumNodes() int { return p.nodes }

// NumVehicles returns the fleet size.
func (p *Problem) NumVehicles() int { return len(p.vehicles) }

// NumCalls returns the number of calls.
func (p *Problem) NumCalls() int { return len(p.calls) }

// Vehicle returns the static data of a vehicle.
func (p *Problem) Vehicle(v model.VehicleID) Vehicle { return p.vehicles[v.Index()] }

// Capacity returns the cargo capacity of a vehicle.
func (p *Problem) Capacity(v model.VehicleID) model.Capacity {
	return p.vehicles[v.Index()].Capacity
}

// TravelTime returns the driving time for a vehicle between two nodes.
func (p *Problem) TravelTime(v model.VehicleID, from, to model.NodeID) model.Time {
	return p.travelTime.At(v.Index(), int(from), int(to))
}

// TravelCost returns the driving cost for a vehicle between two nodes.
func (p *Problem) TravelCost(v model.VehicleID, from, to model.NodeID) model.Cost {
	return p.travelCost.At(v.Index(), int(from), int(to))
}

// Allowed reports whether the vehicle may serve the call.
func (p *Problem) Allowed(v model.VehicleID, c model.CallID) bool {
	return p.allowed.At(v.Index(), c.Index())
}

// ServiceTime returns the loading time on pickup legs and the unloading
// time on delivery legs.
func (p *Problem) ServiceTime(v model.VehicleID, c model.CallID) model.Time {
	if c.IsPickup() {
		return p.loadingTime.At(v.Index(), c.Index())
	}
	return p.unloadingTime.At(v.Index(), c.Index())
}

// PortCost returns the port fee a vehicle pays for serving the call.
func (p *Problem) PortCost(v model.VehicleID, c model.CallID) model.Cost {
	return p.portCost.At(v.Index(), c.Index())
}

// CargoSize returns the size of the call's cargo.
func (p *Problem) CargoSize(c model.CallID) model.CargoSize {
	return p.calls[c.Index()].Size
}

// NotTransportCost returns the penalty for leaving the call unassigned.
func (p *Problem) NotTransportCost(c model.CallID) model.Cost {
	return p.calls[c.Index()].NotTransportCost
}

// OriginNode returns the pickup node of the call.
func (p *Problem) OriginNode(c model.CallID) model.NodeID {
	return p.calls[c.Index()].Origin
}

// DestinationNode returns the delivery node of the call.
func (p *Problem) DestinationNode(c model.CallID) model.NodeID {
	return p.calls[c.Index()].Destination
}

// Node returns the origin for pickup legs and the destination for
// delivery legs.
func (p *Problem) Node(c model.CallID) model.NodeID {
	if c.IsPickup() {
		return p.calls[c.Index()].Origin
	}
	return p.calls[c.Index()].Destination
}

// PickupWindow returns the pickup time window of the call.
func (p *Problem) PickupWindow(c model.CallID) model.Window {
	return p.calls[c.Index()].PickupWindow
}

// DeliveryWindow returns the delivery time window of the call.
func (p *Problem) DeliveryWindow(c model.CallID) model.Window {
	return p.calls[c.Index()].DeliveryWindow
}

// TimeWindow returns the window matching the call's leg.
func (p *Problem) TimeWindow(c model.CallID) model.Window {
	if c.IsPickup() {
		return p.calls[c.Index()].PickupWindow
	}
	return p.calls[c.Index()].DeliveryWindow
}

// CompatibleVehicles returns the vehicles allowed to serve the call.
// The returned slice must not be mutated.
func (p *Problem) CompatibleVehicles(c model.CallID) []model.VehicleID {
	return p.compatible[c.Index()]
}

// Calls returns every call as a pickup-leg id.
func (p *Problem) Calls() []model.CallID {
	out := make([]model.CallID, len(p.calls))
	for i := range p.calls {
		out[i] = model.PickupCall(i + 1)
	}
	return out
}

// MaxCost is an upper bound on any solution cost for this instance, used
// as the worst-case seed for incumbent tracking.
func (p *Problem) MaxCost() model.Cost {
	return model.Cost(math.MaxInt64 / 2)
}

// PickupIndex returns the window index over pickup windows.
func (p *Problem) PickupIndex() *WindowIndex { return &p.pickups }

// DeliveryIndex returns the window index over delivery windows.
func (p *Problem) DeliveryIndex() *WindowIndex { return &p.deliveries }
