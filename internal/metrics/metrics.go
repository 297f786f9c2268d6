package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the solver.
	Registry = prometheus.NewRegistry()
	// Iterations counts search iterations by strategy
	Iterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "search_iterations_total", Help: "Search iterations run."},
		[]string{"strategy"},
	)
	// Runs counts completed runs by strategy and instance
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "search_runs_total", Help: "Completed search runs."},
		[]string{"strategy", "instance"},
	)
	// BestCost tracks the best objective seen per instance
	BestCost = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "search_best_cost", Help: "Best objective value found."},
		[]string{"strategy", "instance"},
	)
	// InfeasibleAttempts counts insertions rejected by the feasibility check
	InfeasibleAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "search_infeasible_attempts_total", Help: "Insertion attempts rejected as infeasible."},
		[]string{"strategy"},
	)
	// RunDuration records wall-clock run durations in seconds
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "search_run_duration_seconds", Help: "Run duration in seconds.", Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600}},
		[]string{"strategy"},
	)
)

// RegisterDefault registers collectors to the solver registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Iterations)
		Registry.MustRegister(Runs)
		Registry.MustRegister(BestCost)
		Registry.MustRegister(InfeasibleAttempts)
		Registry.MustRegister(RunDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
