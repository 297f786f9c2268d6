package solution

import (
	"errors"
	"slices"
	"testing"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/problem"
)

// twoVehicleProblem builds a 3-node instance with a roomy and a cramped
// vehicle. Travel times equal travel costs.
func twoVehicleProblem(t *testing.T) *problem.Problem {
	t.Helper()
	p := problem.New(3,
		[]problem.Vehicle{
			{HomeNode: 0, StartTime: 0, Capacity: 10},
			{HomeNode: 0, StartTime: 0, Capacity: 3},
		},
		[]problem.Call{
			{Origin: 1, Destination: 2, Size: 4, NotTransportCost: 5000,
				PickupWindow:   model.Window{Start: 0, End: 100},
				DeliveryWindow: model.Window{Start: 0, End: 100}},
			{Origin: 2, Destination: 1, Size: 5, NotTransportCost: 8000,
				PickupWindow:   model.Window{Start: 0, End: 200},
				DeliveryWindow: model.Window{Start: 0, End: 200}},
		})

	dist := [3][3]int{
		{0, 5, 7},
		{5, 0, 3},
		{7, 3, 0},
	}
	for v := 0; v < 2; v++ {
		vehicle := model.VehicleFromIndex(v)
		for from := 0; from < 3; from++ {
			for to := 0; to < 3; to++ {
				p.SetTravel(vehicle, model.NodeID(from), model.NodeID(to),
					model.Time(dist[from][to]), model.Cost(dist[from][to]))
			}
		}
		for c := 1; c <= 2; c++ {
			p.SetService(vehicle, model.PickupCall(c), 2, 2, 70)
		}
	}
	p.AllowAll()
	p.Rebuild()
	return p
}

func TestInsertAndRemoveCalls(t *testing.T) {
	s := FromParams(3, 5)

	v1, v2, v3 := model.VehicleID(1), model.VehicleID(2), model.VehicleID(3)
	c1 := model.PickupCall(1)
	c2 := model.PickupCall(2)
	c3 := model.PickupCall(3)
	c4 := model.PickupCall(4)
	c5 := model.PickupCall(5)

	for _, ins := range []struct {
		v       model.VehicleID
		c       model.CallID
		pu, del int
	}{
		{v1, c1, 0, 1},
		{v1, c2, 1, 2},
		{v2, c3, 0, 1},
		{v3, c4, 0, 2},
		{v3, c5, 0, 2},
	} {
		if err := s.InsertCall(ins.v, ins.c, ins.pu, ins.del); err != nil {
			t.Fatalf("InsertCall(%v, %v): %v", ins.v, ins.c, err)
		}
	}

	wantRoute(t, s, v1, []model.CallID{c1, c2, c1.Inverse(), c2.Inverse()})
	wantRoute(t, s, v2, []model.CallID{c3, c3.Inverse()})
	wantRoute(t, s, v3, []model.CallID{c5, c4, c4.Inverse(), c5.Inverse()})

	if _, _, _, err := s.RemoveCall(c2); err != nil {
		t.Fatalf("RemoveCall(c2): %v", err)
	}
	wantRoute(t, s, v1, []model.CallID{c1, c1.Inverse()})

	if _, _, _, err := s.RemoveCall(c4); err != nil {
		t.Fatalf("RemoveCall(c4): %v", err)
	}
	wantRoute(t, s, v3, []model.CallID{c5, c5.Inverse()})

	if err := s.InsertCall(v1, c5, 1, 2); err != nil {
		t.Fatalf("reinsert c5: %v", err)
	}
	if err := s.InsertCall(v2, c2, 0, 1); err != nil {
		t.Fatalf("reinsert c2: %v", err)
	}

	wantRoute(t, s, v1, []model.CallID{c1, c5, c1.Inverse(), c5.Inverse()})
	wantRoute(t, s, v2, []model.CallID{c2, c3, c2.Inverse(), c3.Inverse()})
	wantRoute(t, s, v3, nil)

	if err := s.VerifyOrdering(); err != nil {
		t.Fatalf("VerifyOrdering: %v", err)
	}
}

func wantRoute(t *testing.T, s *Solution, v model.VehicleID, want []model.CallID) {
	t.Helper()
	got := s.Route(v)
	if !slices.Equal(got, want) {
		t.Fatalf("route of %v = %v, want %v", v, got, want)
	}
}

func TestInvalidInsertions(t *testing.T) {
	s := FromParams(2, 3)
	v1 := model.VehicleID(1)
	c1 := model.PickupCall(1)

	if err := s.InsertCall(v1, c1, 2, 1); !errors.Is(err, ErrInvalidDeliveryIndex) {
		t.Fatalf("delivery before pickup: got %v", err)
	}
	if _, _, _, err := s.RemoveCall(c1); !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("remove unassigned: got %v", err)
	}
}

func TestInsertCallBadVehicleLeavesCallInPlace(t *testing.T) {
	s := FromParams(2, 3)
	v1 := model.VehicleID(1)
	c1 := model.PickupCall(1)

	if err := s.InsertCall(v1, c1, 0, 1); err != nil {
		t.Fatalf("InsertCall: %v", err)
	}

	for _, bad := range []model.VehicleID{0, 5} {
		if err := s.InsertCall(bad, c1, 0, 1); !errors.Is(err, ErrVehicleOutOfBounds) {
			t.Fatalf("vehicle %v: got %v", bad, err)
		}
	}
	// a rejected insert must not evict the call from its vehicle
	if got := s.Assignments()[c1.Index()]; got != v1 {
		t.Fatalf("call 1 assigned to %v after failed insert, want %v", got, v1)
	}
	wantRoute(t, s, v1, []model.CallID{c1, c1.Inverse()})
}

func TestReassignCall(t *testing.T) {
	s := FromParams(2, 3)
	v1, v2 := model.VehicleID(1), model.VehicleID(2)
	c1 := model.PickupCall(1)

	if err := s.InsertCall(v1, c1, 0, 1); err != nil {
		t.Fatalf("InsertCall: %v", err)
	}
	wantRoute(t, s, v1, []model.CallID{c1, c1.Inverse()})

	if err := s.InsertCall(v2, c1, 0, 1); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	wantRoute(t, s, v1, nil)
	wantRoute(t, s, v2, []model.CallID{c1, c1.Inverse()})

	if s.IsUnassigned(c1) {
		t.Fatal("c1 should be assigned after reassign")
	}
}

func TestRemoveReportsLogicalPositions(t *testing.T) {
	s := FromParams(1, 3)
	v1 := model.VehicleID(1)
	c1, c2, c3 := model.PickupCall(1), model.PickupCall(2), model.PickupCall(3)

	s.InsertCall(v1, c1, 0, 1)
	s.InsertCall(v1, c2, 1, 2)
	s.InsertCall(v1, c3, 2, 3)
	wantRoute(t, s, v1, []model.CallID{c1, c2, c3, c1.Inverse(), c3.Inverse(), c2.Inverse()})

	_, pu, del, err := s.RemoveCall(c2)
	if err != nil {
		t.Fatalf("RemoveCall: %v", err)
	}
	// Pickup was at logical 1; the delivery position counts surviving
	// stops only, so the pickup hole no longer contributes.
	if pu != 1 || del != 4 {
		t.Fatalf("removed positions = (%d, %d), want (1, 4)", pu, del)
	}

	// Reinserting at the reported slots restores the original order.
	if err := s.InsertCall(v1, c2, pu, del); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
	wantRoute(t, s, v1, []model.CallID{c1, c2, c3, c1.Inverse(), c3.Inverse(), c2.Inverse()})
}

func TestParseFlatBothEncodings(t *testing.T) {
	doubled, err := ParseFlat("[1, 1, 0, 2, 2, 0]")
	if err != nil {
		t.Fatalf("ParseFlat doubled: %v", err)
	}
	signed, err := ParseFlat("[1, -1, 0, 2, -2, 0]")
	if err != nil {
		t.Fatalf("ParseFlat signed: %v", err)
	}

	for _, s := range []*Solution{doubled, signed} {
		wantRoute(t, s, 1, []model.CallID{model.PickupCall(1), model.DeliveryCall(1)})
		wantRoute(t, s, 2, []model.CallID{model.PickupCall(2), model.DeliveryCall(2)})
	}

	if got := doubled.FlatString(false); got != "[1, 1, 0, 2, 2, 0]" {
		t.Errorf("FlatString(false) = %s", got)
	}
	if got := doubled.FlatString(true); got != "[1, -1, 0, 2, -2, 0]" {
		t.Errorf("FlatString(true) = %s", got)
	}
}

func TestFlatStringUnassigned(t *testing.T) {
	s := FromParams(2, 3)
	s.InsertCall(1, model.PickupCall(2), 0, 1)

	if got := s.FlatString(false); got != "[2, 2, 0, 0, 1, 1, 3, 3]" {
		t.Errorf("FlatString = %s", got)
	}
}

func TestFlatRoundTripKeepsUnassigned(t *testing.T) {
	s := FromParams(2, 3)
	s.InsertCall(1, model.PickupCall(2), 0, 1)

	flat := s.FlatString(false)
	parsed, err := ParseFlat(flat)
	if err != nil {
		t.Fatalf("ParseFlat: %v", err)
	}

	wantRoute(t, parsed, 1, []model.CallID{model.PickupCall(2), model.DeliveryCall(2)})
	wantRoute(t, parsed, 2, nil)
	for _, n := range []int{1, 3} {
		if !parsed.IsUnassigned(model.PickupCall(n)) {
			t.Errorf("call %d should stay unassigned after round trip", n)
		}
	}
	if got := parsed.FlatString(false); got != flat {
		t.Errorf("round trip changed encoding: %s != %s", got, flat)
	}
}

func TestParseFlatRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "[a, b]", "[0, 0]"} {
		if _, err := ParseFlat(bad); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseFlat(%q): got %v", bad, err)
		}
	}
}

func TestSimulateSchedule(t *testing.T) {
	p := twoVehicleProblem(t)
	s := FromParams(2, 2)
	v1 := model.VehicleID(1)
	c1 := model.PickupCall(1)

	s.InsertCall(v1, c1, 0, 1)

	sim := s.Simulation(p, v1)
	if !sim.Feasible {
		t.Fatalf("route should be feasible: %v", sim.Err)
	}
	// Depot -> node 1 takes 5, service 2; on to node 2 takes 3, service 2.
	if !slices.Equal(sim.Times, []model.Time{7, 12}) {
		t.Errorf("times = %v", sim.Times)
	}
	if !slices.Equal(sim.Loads, []model.Capacity{4, 0}) {
		t.Errorf("loads = %v", sim.Loads)
	}
	if sim.RouteCost != 8 || sim.PortCost != 70 {
		t.Errorf("costs = %d + %d", sim.RouteCost, sim.PortCost)
	}

	// Slack: 100-5 at the pickup, 100-10 at the delivery.
	if !slices.Equal(sim.Slack, []model.Time{95, 90}) {
		t.Errorf("slack = %v", sim.Slack)
	}
	if !slices.Equal(sim.MinSlack, []model.Time{90, 90}) {
		t.Errorf("min slack = %v", sim.MinSlack)
	}

	// Route cost, port cost and call 2's penalty.
	if got := s.Cost(p); got != 8+70+8000 {
		t.Errorf("cost = %d", got)
	}
	if err := s.Feasible(p); err != nil {
		t.Errorf("Feasible: %v", err)
	}
}

func TestSimulateCapacityViolation(t *testing.T) {
	p := twoVehicleProblem(t)
	s := FromParams(2, 2)
	v2 := model.VehicleID(2) // capacity 3
	c2 := model.PickupCall(2)

	s.InsertCall(v2, c2, 0, 1)

	sim := s.Simulation(p, v2)
	if sim.Feasible {
		t.Fatal("size 5 cannot ride a capacity 3 vehicle")
	}
	if sim.InfeasibleAt != 0 {
		t.Errorf("infeasible at %d, want 0", sim.InfeasibleAt)
	}
	if err := s.Feasible(p); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Feasible: %v", err)
	}

	// The infeasible route contributes nothing; only the penalties count.
	if got := s.Cost(p); got != 5000+8000 {
		t.Errorf("cost = %d", got)
	}
}

func TestSpareCapacityRanges(t *testing.T) {
	p := twoVehicleProblem(t)
	s := FromParams(2, 2)
	v1 := model.VehicleID(1)

	s.InsertCall(v1, model.PickupCall(1), 0, 1)

	weight, cap := s.FindSpareCapacity(p, model.PickupCall(2), v1)
	if weight != 5 {
		t.Fatalf("weight = %d", weight)
	}
	if cap == nil || len(cap.Ranges) != 1 {
		t.Fatalf("capacity result = %+v", cap)
	}
	// Load peaks at 4, leaving 6 spare: every position 0..2 fits size 5.
	r := cap.Ranges[0]
	if r.Start != 0 || r.End != 2 || r.Capacity != 10 {
		t.Errorf("range = %+v", r)
	}
	if cap.CheckedMin != 10 {
		t.Errorf("checked min = %d", cap.CheckedMin)
	}
}

func TestFeasibleInsertionsEnumerator(t *testing.T) {
	p := twoVehicleProblem(t)
	s := FromParams(2, 2)
	v1 := model.VehicleID(1)
	c2 := model.PickupCall(2)

	s.InsertCall(v1, model.PickupCall(1), 0, 1)
	_, cap := s.FindSpareCapacity(p, c2, v1)

	iter := s.FeasibleInsertions(p, c2, v1, cap)
	if iter == nil {
		t.Fatal("expected an enumerator")
	}

	var pairs [][2]int
	for {
		pu, del, ok := iter.Next()
		if !ok {
			break
		}
		if del < pu {
			t.Fatalf("delivery %d before pickup %d", del, pu)
		}
		pairs = append(pairs, [2]int{pu, del})
	}
	// Slack is ample, so every ordered pair over positions 0..2 survives.
	if len(pairs) != 6 {
		t.Fatalf("got %d pairs: %v", len(pairs), pairs)
	}
	if pairs[0] != [2]int{0, 0} {
		t.Errorf("first pair = %v", pairs[0])
	}

	// Each pair must actually verify.
	for _, pair := range pairs {
		clone := s.Clone()
		if err := clone.InsertCall(v1, c2, pair[0], pair[1]); err != nil {
			t.Fatalf("insert at %v: %v", pair, err)
		}
		if err := clone.Feasible(p); err != nil {
			t.Errorf("pair %v not feasible: %v", pair, err)
		}
	}
}

func TestNoInsertionsWithoutCapacity(t *testing.T) {
	p := twoVehicleProblem(t)
	s := FromParams(2, 2)
	v2 := model.VehicleID(2) // capacity 3, call 2 has size 5

	_, cap := s.FindSpareCapacity(p, model.PickupCall(2), v2)
	if cap != nil && len(cap.Ranges) > 0 {
		t.Fatalf("capacity ranges = %+v", cap.Ranges)
	}
	if iter := s.FeasibleInsertions(p, model.PickupCall(2), v2, cap); iter != nil {
		t.Fatal("expected no enumerator")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := twoVehicleProblem(t)
	s := FromParams(2, 2)
	v1 := model.VehicleID(1)
	s.InsertCall(v1, model.PickupCall(1), 0, 1)
	s.Cost(p)

	clone := s.Clone()
	clone.RemoveCall(model.PickupCall(1))
	clone.InsertCall(v1, model.PickupCall(2), 0, 1)

	wantRoute(t, s, v1, []model.CallID{model.PickupCall(1), model.DeliveryCall(1)})
	if s.IsUnassigned(model.PickupCall(1)) {
		t.Fatal("original lost its assignment")
	}
	if !clone.IsUnassigned(model.PickupCall(1)) {
		t.Fatal("clone kept the removed call")
	}

	// Capacity probes on the clone must not leak into the original.
	clone2 := s.Clone()
	clone2.FindSpareCapacity(p, model.PickupCall(2), v1)
	origSim := s.Simulation(p, v1)
	cloneSim := clone2.Simulation(p, v1)
	if cloneSim.Capacity != nil && origSim.Capacity != nil &&
		len(origSim.Capacity.Ranges) == len(cloneSim.Capacity.Ranges) {
		t.Fatal("probe leaked into the original's cached simulation")
	}
}

func TestHashTracksAssignmentsOnly(t *testing.T) {
	a := FromParams(2, 3)
	b := FromParams(2, 3)
	a.InsertCall(1, model.PickupCall(1), 0, 1)
	b.InsertCall(1, model.PickupCall(1), 0, 1)

	if a.Hash() != b.Hash() {
		t.Fatal("equal assignments must hash alike")
	}

	b.InsertCall(2, model.PickupCall(2), 0, 1)
	if a.Hash() == b.Hash() {
		t.Fatal("different assignments should hash apart")
	}

	// Reordering stops on the same vehicle keeps the hash.
	a.InsertCall(1, model.PickupCall(2), 0, 1)
	c := FromParams(2, 3)
	c.InsertCall(1, model.PickupCall(1), 0, 1)
	c.InsertCall(1, model.PickupCall(2), 1, 2)
	if a.Hash() != c.Hash() {
		t.Fatal("stop order must not affect the hash")
	}
}

func TestFromVehicleRoutes(t *testing.T) {
	p := twoVehicleProblem(t)
	s, err := FromVehicleRoutes(p, [][]model.CallID{
		{model.PickupCall(1), model.DeliveryCall(1)},
		{},
	})
	if err != nil {
		t.Fatalf("FromVehicleRoutes: %v", err)
	}
	wantRoute(t, s, 1, []model.CallID{model.PickupCall(1), model.DeliveryCall(1)})
	if s.IsUnassigned(model.PickupCall(1)) {
		t.Fatal("call 1 should be assigned")
	}

	_, err = FromVehicleRoutes(p, [][]model.CallID{
		{model.DeliveryCall(1)},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("orphan delivery: got %v", err)
	}
}
