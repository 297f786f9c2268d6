// Package search holds the metaheuristics: the adaptive large
// neighborhood search, the pooled fixed-weight variant, and the local
// search and simulated annealing baselines.
package search

import (
	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/solution"
)

// Progress tracks how often candidate solutions recur and when the best
// solution improved. Recurrence is keyed by the assignment hash, so two
// solutions assigning every call to the same vehicle count as one.
type Progress struct {
	frequency      map[uint64]int
	BestIterations []int
	BestCosts      []model.Cost
}

func NewProgress() *Progress {
	return &Progress{frequency: make(map[uint64]int)}
}

// Observe registers a candidate and returns how many times its hash has
// now been seen, the current observation included.
func (pr *Progress) Observe(s *solution.Solution) int {
	h := s.Hash()
	pr.frequency[h]++
	return pr.frequency[h]
}

// Improved logs a new best at the given iteration.
func (pr *Progress) Improved(iteration int, cost model.Cost) {
	pr.BestIterations = append(pr.BestIterations, iteration)
	pr.BestCosts = append(pr.BestCosts, cost)
}

// Distinct reports how many distinct candidate hashes were observed.
func (pr *Progress) Distinct() int {
	return len(pr.frequency)
}
