package solution

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/janinge/drones2/internal/model"
)

// ParseFlat builds a solution from the flat interchange format: a
// bracketed, comma-separated list where nonzero integers are call numbers
// and each 0 closes a vehicle's route. A call's first occurrence in a
// block is its pickup, the second its delivery; signs on the input are
// ignored. Calls listed after the last vehicle block are unassigned.
func ParseFlat(list string) (*Solution, error) {
	trimmed := strings.TrimSpace(list)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")

	var numbers []int
	for _, field := range strings.Split(trimmed, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("%w: bad integer %q", ErrInvalidInput, field)
		}
		numbers = append(numbers, n)
	}
	if len(numbers) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrInvalidInput)
	}

	var blocks [][]model.CallID
	var block []model.CallID
	maxCall := 0
	for _, n := range numbers {
		if n == 0 {
			blocks = append(blocks, block)
			block = nil
			continue
		}
		if n < 0 {
			n = -n
		}
		if n > maxCall {
			maxCall = n
		}
		block = append(block, model.PickupCall(n))
	}
	// calls left after the final 0 are the unassigned set, not a route
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no vehicles in list", ErrInvalidInput)
	}
	if maxCall == 0 {
		return nil, fmt.Errorf("%w: no calls in list", ErrInvalidInput)
	}

	s := FromParams(len(blocks), maxCall)
	for vehIdx, block := range blocks {
		vehicle := model.VehicleFromIndex(vehIdx)
		seen := make(map[model.CallID]bool, len(block))
		route := newRoute(len(block))

		for _, call := range block {
			pickup := call.Pickup()
			if !seen[pickup] {
				seen[pickup] = true
				route.Push(pickup)
				s.assignments[pickup.Index()] = vehicle
			} else {
				route.Push(pickup.Delivery())
			}
		}
		s.routes[vehIdx] = route
	}
	return s, nil
}

// FlatString renders the solution in the flat interchange format. With
// signedDeliveries, delivery legs carry a minus sign; otherwise both legs
// use the positive call number. Unassigned calls are appended twice each
// after the final separator, in sorted order.
func (s *Solution) FlatString(signedDeliveries bool) string {
	var flat []int
	for i := range s.routes {
		for _, call := range s.routes[i].Calls() {
			if signedDeliveries {
				flat = append(flat, int(call))
			} else {
				flat = append(flat, call.ID())
			}
		}
		flat = append(flat, 0)
	}

	var dummy []int
	for i, vehicle := range s.assignments {
		if !vehicle.Valid() {
			dummy = append(dummy, i+1, i+1)
		}
	}
	sort.Ints(dummy)
	flat = append(flat, dummy...)

	parts := make([]string, len(flat))
	for i, n := range flat {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
