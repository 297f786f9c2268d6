package problem

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/janinge/drones2/internal/model"
)

const sampleInstance = `% number of nodes
3
% number of vehicles
1
% vehicle index, home node, starting time, capacity
1,1,0,10
% number of calls
2
% vehicle index, list of transportable calls
1,1,2
% call index, origin, destination, size, penalty, pickup lb, pickup ub, delivery lb, delivery ub
1,1,2,4,5000,0,100,0,100
2,2,3,5,8000,10,120,20,200
% vehicle, origin, destination, travel time, travel cost
1,1,1,0,0
1,1,2,5,10
1,1,3,7,14
1,2,1,5,10
1,2,2,0,0
1,2,3,3,6
1,3,1,7,14
1,3,2,3,6
1,3,3,0,0
% vehicle, call, load time, origin cost, unload time, destination cost
1,1,2,30,2,40
1,2,1,10,1,20
`

func TestLoadSampleInstance(t *testing.T) {
	p, err := Load(strings.NewReader(sampleInstance))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.NumNodes() != 3 || p.NumVehicles() != 1 || p.NumCalls() != 2 {
		t.Fatalf("got %d nodes, %d vehicles, %d calls",
			p.NumNodes(), p.NumVehicles(), p.NumCalls())
	}

	v := model.VehicleFromIndex(0)
	veh := p.Vehicle(v)
	if veh.HomeNode != 0 || veh.StartTime != 0 || veh.Capacity != 10 {
		t.Fatalf("unexpected vehicle data: %+v", veh)
	}

	if got := p.TravelTime(v, 0, 1); got != 5 {
		t.Errorf("travel time 0->1 = %d, want 5", got)
	}
	if got := p.TravelCost(v, 2, 1); got != 6 {
		t.Errorf("travel cost 2->1 = %d, want 6", got)
	}

	c1 := model.PickupCall(1)
	if p.OriginNode(c1) != 0 || p.DestinationNode(c1) != 1 {
		t.Errorf("call 1 nodes = %d, %d", p.OriginNode(c1), p.DestinationNode(c1))
	}
	if p.Node(c1) != 0 || p.Node(c1.Delivery()) != 1 {
		t.Errorf("leg node mismatch for call 1")
	}
	if p.CargoSize(c1) != 4 || p.NotTransportCost(c1) != 5000 {
		t.Errorf("call 1 size/penalty = %d/%d", p.CargoSize(c1), p.NotTransportCost(c1))
	}

	c2 := model.PickupCall(2)
	if w := p.PickupWindow(c2); w.Start != 10 || w.End != 120 {
		t.Errorf("call 2 pickup window = %+v", w)
	}
	if w := p.TimeWindow(c2.Delivery()); w.Start != 20 || w.End != 200 {
		t.Errorf("call 2 delivery window = %+v", w)
	}

	// Port cost combines the origin and destination fees.
	if got := p.PortCost(v, c1); got != 70 {
		t.Errorf("port cost call 1 = %d, want 70", got)
	}
	if got := p.ServiceTime(v, c2); got != 1 {
		t.Errorf("load time call 2 = %d, want 1", got)
	}
	if got := p.ServiceTime(v, c2.Delivery()); got != 1 {
		t.Errorf("unload time call 2 = %d, want 1", got)
	}

	if !p.Allowed(v, c1) || !p.Allowed(v, c2) {
		t.Errorf("vehicle should be allowed for both calls")
	}
	if vs := p.CompatibleVehicles(c2); len(vs) != 1 || vs[0] != v {
		t.Errorf("compatible vehicles for call 2 = %v", vs)
	}
}

func TestLoadRejectsTruncatedInstance(t *testing.T) {
	_, err := Load(strings.NewReader("3\n1\n1,1,0,10\n"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func TestLoadRejectsOutOfRangeIndex(t *testing.T) {
	broken := strings.Replace(sampleInstance, "1,1,2,4,5000", "1,9,2,4,5000", 1)
	_, err := Load(strings.NewReader(broken))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func TestWindowIndexOrdering(t *testing.T) {
	p, err := Load(strings.NewReader(sampleInstance))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	starts := p.PickupIndex().Starts()
	if len(starts) != 2 || starts[0].At > starts[1].At {
		t.Fatalf("pickup starts not sorted: %v", starts)
	}
	ends := p.DeliveryIndex().EndsFrom(150)
	if len(ends) != 1 || ends[0].Call != model.PickupCall(2) {
		t.Fatalf("EndsFrom(150) = %v", ends)
	}
}

func TestNaturalOrdering(t *testing.T) {
	names := []string{
		"Call_18_Vehicle_5.txt",
		"Call_7_Vehicle_3.txt",
		"Call_130_Vehicle_40.txt",
		"Call_7_Vehicle_10.txt",
	}
	sort.Slice(names, func(a, b int) bool { return naturalLess(names[a], names[b]) })
	want := []string{
		"Call_7_Vehicle_3.txt",
		"Call_7_Vehicle_10.txt",
		"Call_18_Vehicle_5.txt",
		"Call_130_Vehicle_40.txt",
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("order %v, want %v", names, want)
		}
	}
}
