package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/janinge/drones2/internal/config"
	"github.com/janinge/drones2/internal/live"
	"github.com/janinge/drones2/internal/metrics"
	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/operators"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/search"
	"github.com/janinge/drones2/internal/solution"
	"github.com/janinge/drones2/internal/telemetry"
)

// harness wires instance files, telemetry sinks and the optional
// progress broker around the per-run search loop shared by every
// subcommand.
type harness struct {
	cfg    *config.Config
	store  *telemetry.Store
	broker live.EventBroker
	pg     *telemetry.Postgres
}

func newHarness(cfg *config.Config) (*harness, error) {
	h := &harness{cfg: cfg, store: telemetry.NewStore()}
	if cfg.Watch.RedisURL != "" {
		broker, err := live.NewRedisBroker(cfg.Watch.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis broker: %w", err)
		}
		h.broker = broker
	}
	if cfg.Telemetry.PostgresURL != "" {
		pg, err := telemetry.NewPostgres(cfg.Telemetry.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("telemetry postgres: %w", err)
		}
		h.pg = pg
	}
	metrics.RegisterDefault()
	return h, nil
}

func (h *harness) close() {
	if h.pg != nil {
		if err := h.pg.Close(); err != nil {
			log.Printf("closing telemetry sink: %v", err)
		}
	}
}

func (h *harness) instances() ([]string, error) {
	paths, err := problem.EnumerateInstances(flagPrefix, flagFiles)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no instance files under %q", flagPrefix)
	}
	return paths, nil
}

// recorder assembles the sinks for one run. The returned func flushes
// and announces completion.
func (h *harness) recorder(instance, strategy string) (telemetry.Recorder, func()) {
	run, storeRec := h.store.Open(instance, strategy)
	recs := telemetry.Multi{storeRec, infeasibleCounter{strategy}}
	var done []func()

	if h.cfg.Telemetry.CSVDir != "" {
		name := fmt.Sprintf("%s_%s_%s.csv", strategy,
			filepath.Base(instance), run.ID.String()[:8])
		sink, err := telemetry.CreateCSVFile(filepath.Join(h.cfg.Telemetry.CSVDir, name))
		if err != nil {
			log.Printf("csv sink for %s: %v", instance, err)
		} else {
			recs = append(recs, sink)
			done = append(done, func() {
				if err := sink.Close(); err != nil {
					log.Printf("closing csv trace: %v", err)
				}
			})
		}
	}
	if h.pg != nil {
		if _, err := h.pg.StartRun(context.Background(), instance, strategy); err != nil {
			log.Printf("postgres run for %s: %v", instance, err)
		} else {
			recs = append(recs, h.pg)
			done = append(done, func() {
				if err := h.pg.Flush(); err != nil {
					log.Printf("flushing telemetry rows: %v", err)
				}
			})
		}
	}
	if h.broker != nil {
		pub := live.NewPublisher(h.broker, run.ID.String())
		recs = append(recs, pub)
		done = append(done, pub.Finish)
	}

	return recs, func() {
		for _, f := range done {
			f()
		}
	}
}

// infeasibleCounter mirrors the rejected-insertion tally of each
// iteration record into the Prometheus counter.
type infeasibleCounter struct {
	strategy string
}

func (c infeasibleCounter) Record(rec telemetry.IterationRecord) {
	if rec.Infeasible > 0 {
		metrics.InfeasibleAttempts.WithLabelValues(c.strategy).Add(float64(rec.Infeasible))
	}
}

// runner executes one search run and returns the best solution found.
type runner func(p *problem.Problem, initial *solution.Solution,
	rng *rand.Rand, rec telemetry.Recorder) (*solution.Solution, model.Cost)

// forEachInstance loads every instance, skipping unreadable files with a
// logged error, and performs the configured number of independent runs.
func (h *harness) forEachInstance(strategy string, run runner) error {
	paths, err := h.instances()
	if err != nil {
		return err
	}
	seed := h.cfg.Search.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		log.Printf("seed %d", seed)
	}

	for _, path := range paths {
		p, err := problem.LoadFile(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		name := filepath.Base(path)

		var best *solution.Solution
		var bestCost model.Cost
		started := time.Now()

		for r := 0; r < h.cfg.Search.Runs; r++ {
			rng := rand.New(rand.NewSource(seed + int64(r)))
			initial := operators.Seed(p, rng)
			rec, finish := h.recorder(name, strategy)

			sol, cost := run(p, initial, rng, rec)
			finish()

			metrics.Runs.WithLabelValues(strategy, name).Inc()
			if best == nil || cost < bestCost {
				best = sol
				bestCost = cost
				metrics.BestCost.WithLabelValues(strategy, name).Set(float64(bestCost))
			}
		}
		metrics.RunDuration.WithLabelValues(strategy).Observe(time.Since(started).Seconds())

		reportBest(p, name, best, bestCost, time.Since(started))
	}
	return nil
}

func reportBest(p *problem.Problem, name string, best *solution.Solution,
	cost model.Cost, elapsed time.Duration) {
	if best == nil {
		log.Printf("%s: no solution", name)
		return
	}
	initial := solution.New(p).Cost(p)
	improvement := 0.0
	if initial > 0 {
		improvement = 100 * float64(initial-cost) / float64(initial)
	}
	log.Printf("%s: cost %d (%.2f%% below no-transport) in %s",
		name, cost, improvement, elapsed.Round(time.Millisecond))
	fmt.Println(best.FlatString(false))
}

func removalParams(cfg *config.Config) operators.RemovalParams {
	return operators.RemovalParams{
		SelectionRatio: cfg.Removal.SelectionRatio,
		Randomness:     cfg.Removal.Randomness,
		CostBias:       cfg.Removal.CostBias,
		AssignmentBias: cfg.Removal.AssignmentBias,
		MinRemovals:    cfg.Removal.MinRemovals,
		MaxRemovals:    cfg.Removal.MaxRemovals,
	}
}

func searchParams(cfg *config.Config) search.Params {
	params := search.DefaultParams()
	params.MaxIterations = cfg.Search.MaxIterations
	params.SegmentLength = cfg.Search.SegmentLength
	params.Rho = cfg.Search.Rho
	params.FinalTemperature = cfg.Search.FinalTemperature
	params.DestroyFraction = cfg.Search.DestroyFraction
	params.Removal = removalParams(cfg)
	return params
}
