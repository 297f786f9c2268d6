package problem

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/janinge/drones2/internal/model"
)

// ErrMalformed is returned when an instance file does not follow the
// expected layout.
var ErrMalformed = errors.New("malformed instance")

// LoadFile reads a PDPTW instance from the benchmark text format.
func LoadFile(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open instance: %w", err)
	}
	defer f.Close()
	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Load parses an instance from r. Lines that do not begin with a digit
// (headers, % comments, blanks) are skipped. Node, vehicle and call indices
// in the file are one-based and converted to zero-based internally.
func Load(r io.Reader) (*Problem, error) {
	sc := newLineScanner(r)

	numNodes, err := sc.scalar("number of nodes")
	if err != nil {
		return nil, err
	}
	numVehicles, err := sc.scalar("number of vehicles")
	if err != nil {
		return nil, err
	}

	vehicles := make([]Vehicle, numVehicles)
	for i := range vehicles {
		fields, err := sc.fields("vehicle info", 4)
		if err != nil {
			return nil, err
		}
		// fields: index, home node, starting time, capacity
		home, err := oneBased(fields[1], numNodes, "home node")
		if err != nil {
			return nil, err
		}
		vehicles[i] = Vehicle{
			HomeNode:  model.NodeID(home),
			StartTime: model.Time(fields[2]),
			Capacity:  model.Capacity(fields[3]),
		}
	}

	numCalls, err := sc.scalar("number of calls")
	if err != nil {
		return nil, err
	}

	type allowedPair struct{ v, c int }
	var allowed []allowedPair
	for v := 0; v < numVehicles; v++ {
		fields, err := sc.fields("vehicle compatibility", 1)
		if err != nil {
			return nil, err
		}
		for _, raw := range fields[1:] {
			c, err := oneBased(raw, numCalls, "compatible call")
			if err != nil {
				return nil, err
			}
			allowed = append(allowed, allowedPair{v: v, c: c})
		}
	}

	calls := make([]Call, numCalls)
	for i := range calls {
		fields, err := sc.fields("call info", 9)
		if err != nil {
			return nil, err
		}
		// fields: index, origin, destination, size, penalty,
		// pickup lb, pickup ub, delivery lb, delivery ub
		origin, err := oneBased(fields[1], numNodes, "call origin")
		if err != nil {
			return nil, err
		}
		dest, err := oneBased(fields[2], numNodes, "call destination")
		if err != nil {
			return nil, err
		}
		calls[i] = Call{
			Origin:           model.NodeID(origin),
			Destination:      model.NodeID(dest),
			Size:             model.CargoSize(fields[3]),
			NotTransportCost: model.Cost(fields[4]),
			PickupWindow:     model.Window{Start: model.Time(fields[5]), End: model.Time(fields[6])},
			DeliveryWindow:   model.Window{Start: model.Time(fields[7]), End: model.Time(fields[8])},
		}
	}

	p := New(numNodes, vehicles, calls)
	for _, pair := range allowed {
		p.allowed.Set(pair.v, pair.c, true)
	}

	for i := 0; i < numVehicles*numNodes*numNodes; i++ {
		fields, err := sc.fields("travel time/cost", 5)
		if err != nil {
			return nil, err
		}
		// fields: vehicle, origin, destination, travel time, travel cost
		v, err := oneBased(fields[0], numVehicles, "travel vehicle")
		if err != nil {
			return nil, err
		}
		origin, err := oneBased(fields[1], numNodes, "travel origin")
		if err != nil {
			return nil, err
		}
		dest, err := oneBased(fields[2], numNodes, "travel destination")
		if err != nil {
			return nil, err
		}
		p.travelTime.Set(v, origin, dest, model.Time(fields[3]))
		p.travelCost.Set(v, origin, dest, model.Cost(fields[4]))
	}

	for i := 0; i < numVehicles*numCalls; i++ {
		fields, err := sc.fields("node times/costs", 6)
		if err != nil {
			return nil, err
		}
		// fields: vehicle, call, load time, origin cost, unload time,
		// destination cost
		v, err := oneBased(fields[0], numVehicles, "service vehicle")
		if err != nil {
			return nil, err
		}
		c, err := oneBased(fields[1], numCalls, "service call")
		if err != nil {
			return nil, err
		}
		p.loadingTime.Set(v, c, model.Time(fields[2]))
		p.unloadingTime.Set(v, c, model.Time(fields[4]))
		p.portCost.Set(v, c, model.Cost(fields[3]+fields[5]))
	}

	p.Rebuild()
	return p, nil
}

type lineScanner struct {
	sc *bufio.Scanner
}

func newLineScanner(r io.Reader) *lineScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &lineScanner{sc: sc}
}

// next returns the next data line, skipping comments and blanks.
func (s *lineScanner) next(what string) (string, error) {
	for s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if line == "" || line[0] < '0' || line[0] > '9' {
			continue
		}
		return line, nil
	}
	if err := s.sc.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", what, err)
	}
	return "", fmt.Errorf("%w: missing %s", ErrMalformed, what)
}

func (s *lineScanner) scalar(what string) (int, error) {
	line, err := s.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", ErrMalformed, what, line)
	}
	return n, nil
}

func (s *lineScanner) fields(what string, min int) ([]int, error) {
	line, err := s.next(what)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(line, ",")
	if len(parts) < min {
		return nil, fmt.Errorf("%w: %s line %q has %d fields, want %d",
			ErrMalformed, what, line, len(parts), min)
	}
	out := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: bad %s field %q", ErrMalformed, what, part)
		}
		out[i] = n
	}
	return out, nil
}

func oneBased(raw, limit int, what string) (int, error) {
	if raw < 1 || raw > limit {
		return 0, fmt.Errorf("%w: %s index %d out of range 1..%d", ErrMalformed, what, raw, limit)
	}
	return raw - 1, nil
}
