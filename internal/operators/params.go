package operators

import "math"

// RemovalParams tunes how many calls a removal pass evicts and how it
// trades cost-guided selection against uniform noise.
type RemovalParams struct {
	SelectionRatio float64 // fraction of total calls to remove
	Randomness     float64 // chance of a uniform pick replacing a guided one
	CostBias       float64 // weight of marginal cost in guided selection
	AssignmentBias float64 // share of the budget spent on unassigned calls
	MinRemovals    int
	MaxRemovals    int
}

// DefaultRemovalParams matches the stock search configuration.
var DefaultRemovalParams = RemovalParams{
	SelectionRatio: 0.10,
	Randomness:     0.0,
	CostBias:       0.5,
	AssignmentBias: 0.25,
	MinRemovals:    2,
	MaxRemovals:    12,
}

// budget converts the ratio into a concrete removal count for an
// instance with n calls, clamped to the configured bounds and to n.
func (p RemovalParams) budget(n int) int {
	count := int(math.Ceil(float64(n) * p.SelectionRatio))
	if count < p.MinRemovals {
		count = p.MinRemovals
	}
	if p.MaxRemovals > 0 && count > p.MaxRemovals {
		count = p.MaxRemovals
	}
	if count > n {
		count = n
	}
	return count
}
