// Package model holds the small value types shared by every layer of the
// solver: call and vehicle identity plus the scalar measures (time, cost,
// capacity) the problem tables are expressed in.
package model

import "fmt"

type (
	// NodeID is a 0-based port/node index.
	NodeID int16
	// Time is measured in problem time units (hours in the stock instances).
	Time int32
	// Cost is measured in problem cost units.
	Cost int64
	// Capacity is a vehicle's cargo capacity, comparable against summed CargoSize.
	Capacity int32
	// CargoSize is the size of one call's cargo.
	CargoSize int32
)

// CallID identifies one leg of a transport request. The magnitude is the
// 1-based call number; the sign selects the leg: positive for the pickup,
// negative for the delivery. Zero is not a valid CallID and doubles as the
// empty-slot sentinel inside routes.
type CallID int16

// PickupCall returns the pickup leg of call number n (n >= 1).
func PickupCall(n int) CallID {
	return CallID(n)
}

// DeliveryCall returns the delivery leg of call number n (n >= 1).
func DeliveryCall(n int) CallID {
	return CallID(-n)
}

// Valid reports whether c names an actual call leg.
func (c CallID) Valid() bool { return c != 0 }

// ID returns the 1-based call number, regardless of leg.
func (c CallID) ID() int {
	if c < 0 {
		return int(-c)
	}
	return int(c)
}

// Index returns the 0-based position of this call in per-call tables.
func (c CallID) Index() int { return c.ID() - 1 }

// IsPickup reports whether c is the pickup leg.
func (c CallID) IsPickup() bool { return c > 0 }

// IsDelivery reports whether c is the delivery leg.
func (c CallID) IsDelivery() bool { return c < 0 }

// Pickup returns the pickup leg of the same call.
func (c CallID) Pickup() CallID {
	if c < 0 {
		return -c
	}
	return c
}

// Delivery returns the delivery leg of the same call.
func (c CallID) Delivery() CallID {
	if c > 0 {
		return -c
	}
	return c
}

// Inverse flips pickup to delivery and vice versa.
func (c CallID) Inverse() CallID { return -c }

func (c CallID) String() string {
	if c.IsDelivery() {
		return fmt.Sprintf("delivery(%d)", c.ID())
	}
	return fmt.Sprintf("pickup(%d)", c.ID())
}

// VehicleID is a 1-based vehicle number. The zero value means "no vehicle"
// (used by the assignment table for calls left on the dummy vehicle).
type VehicleID uint8

// VehicleFromIndex converts a 0-based fleet index to a VehicleID.
func VehicleFromIndex(idx int) VehicleID { return VehicleID(idx + 1) }

// Valid reports whether v names an actual vehicle.
func (v VehicleID) Valid() bool { return v != 0 }

// Index returns the 0-based position of this vehicle in per-vehicle tables.
func (v VehicleID) Index() int { return int(v) - 1 }

func (v VehicleID) String() string { return fmt.Sprintf("vehicle(%d)", int(v)) }

// Window is an inclusive time window.
type Window struct {
	Start Time
	End   Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t Time) bool { return t >= w.Start && t <= w.End }
