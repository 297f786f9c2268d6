package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/operators"
	"github.com/janinge/drones2/internal/problem"
	"github.com/janinge/drones2/internal/solution"
	"github.com/janinge/drones2/internal/telemetry"
)

// searchProblem is a single-vehicle instance with free, instant travel:
// every call fits, so the optimum assigns everything at cost zero.
func searchProblem() *problem.Problem {
	call := func(origin, dest model.NodeID, size model.CargoSize, penalty model.Cost) problem.Call {
		return problem.Call{Origin: origin, Destination: dest, Size: size,
			NotTransportCost: penalty,
			PickupWindow:     model.Window{Start: 0, End: 1000},
			DeliveryWindow:   model.Window{Start: 0, End: 1000}}
	}
	p := problem.New(3,
		[]problem.Vehicle{{HomeNode: 0, StartTime: 0, Capacity: 10}},
		[]problem.Call{
			call(1, 2, 3, 1000),
			call(2, 1, 4, 2000),
			call(1, 2, 2, 1500),
		})
	p.AllowAll()
	p.Rebuild()
	return p
}

func TestALNSImprovesFromEmpty(t *testing.T) {
	p := searchProblem()
	initial := solution.New(p)
	initialCost := initial.Cost(p)

	params := DefaultParams()
	params.MaxIterations = 300
	a := NewALNS(params, operators.DefaultPairs(), rand.New(rand.NewSource(42)))

	best, bestCost := a.Run(p, initial, telemetry.Nop{})

	assert.Less(t, bestCost, initialCost)
	require.NoError(t, best.VerifyOrdering())
	require.NoError(t, best.Feasible(p))
	assert.Equal(t, bestCost, best.Cost(p))

	// The initial solution is untouched.
	assert.Equal(t, initialCost, initial.Cost(p))
}

func TestSinglePairWeightRecomputedAfterSegment(t *testing.T) {
	// One oversized call: every candidate stays empty, so the single
	// pair scores nothing over a full segment and its weight decays to
	// exactly 1*(1-rho).
	p := problem.New(3,
		[]problem.Vehicle{{HomeNode: 0, StartTime: 0, Capacity: 3}},
		[]problem.Call{{Origin: 1, Destination: 2, Size: 5, NotTransportCost: 5000,
			PickupWindow:   model.Window{Start: 0, End: 1000},
			DeliveryWindow: model.Window{Start: 0, End: 1000}}})
	p.AllowAll()
	p.Rebuild()

	params := DefaultParams()
	params.MaxIterations = 100
	params.SegmentLength = 100
	pairs := operators.Pairs(
		[]operators.Removal{operators.Random{}},
		[]operators.Insertion{operators.RandomPlacementAll{}})
	require.Len(t, pairs, 1)

	a := NewALNS(params, pairs, rand.New(rand.NewSource(2)))
	a.Run(p, solution.New(p), telemetry.Nop{})

	assert.InDelta(t, 1-params.Rho, a.Weights()[0], 1e-9)
}

func TestWeightUpdateFoldsSegmentScores(t *testing.T) {
	params := DefaultParams()
	params.Rho = 0.2
	a := NewALNS(params, operators.DefaultPairs(), rand.New(rand.NewSource(1)))

	a.scores[0] = 30
	a.usage[0] = 2
	a.scores[1] = 0
	a.usage[1] = 4
	a.updateWeights()

	// 1.0*0.8 + 0.2*(30/2)
	assert.InDelta(t, 3.8, a.weights[0], 1e-9)
	// 1.0*0.8 + 0 stays above the floor
	assert.InDelta(t, 0.8, a.weights[1], 1e-9)
	// untouched pairs keep their weight
	assert.Equal(t, 1.0, a.weights[2])

	assert.Zero(t, a.scores[0])
	assert.Zero(t, a.usage[0])
}

func TestWeightUpdateFloors(t *testing.T) {
	params := DefaultParams()
	params.Rho = 1.0
	a := NewALNS(params, operators.DefaultPairs(), rand.New(rand.NewSource(1)))

	a.usage[0] = 10 // zero score, full replacement
	a.updateWeights()

	assert.Equal(t, weightFloor, a.weights[0])
}

func TestRouletteHonorsZeroWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	weights := []float64{0, 1, 0}
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, roulette(weights, rng))
	}
}

func TestDiversifyEvictsFraction(t *testing.T) {
	p := searchProblem()
	initial := operators.Seed(p, rand.New(rand.NewSource(5)))

	params := DefaultParams()
	params.DestroyFraction = 1.0
	a := NewALNS(params, operators.DefaultPairs(), rand.New(rand.NewSource(5)))
	a.diversify(p, initial)

	for i := 1; i <= p.NumCalls(); i++ {
		assert.True(t, initial.IsUnassigned(model.PickupCall(i)))
	}
}

func TestProgressCountsRecurrence(t *testing.T) {
	p := searchProblem()
	s := solution.New(p)
	pr := NewProgress()

	assert.Equal(t, 1, pr.Observe(s))
	assert.Equal(t, 2, pr.Observe(s))
	require.NoError(t, s.InsertCall(1, model.PickupCall(1), 0, 1))
	assert.Equal(t, 1, pr.Observe(s))
	assert.Equal(t, 2, pr.Distinct())
}

func TestLocalNeverWorsens(t *testing.T) {
	p := searchProblem()
	rng := rand.New(rand.NewSource(7))
	initial := operators.Seed(p, rng)
	initialCost := initial.Cost(p)

	best, bestCost := Local(p, initial, 100, rng, telemetry.Nop{})

	assert.LessOrEqual(t, bestCost, initialCost)
	require.NoError(t, best.Feasible(p))
}

func TestAnnealingTracksBest(t *testing.T) {
	p := searchProblem()
	rng := rand.New(rand.NewSource(8))
	initial := solution.New(p)

	best, bestCost := Annealing(p, initial, 300, 0.1, rng, telemetry.Nop{})

	assert.LessOrEqual(t, bestCost, initial.Cost(p))
	require.NoError(t, best.Feasible(p))
	assert.Equal(t, bestCost, best.Cost(p))
}

func TestPooledWarmupAndStep(t *testing.T) {
	p := searchProblem()
	rng := rand.New(rand.NewSource(9))
	initial := solution.New(p)
	initialCost := initial.Cost(p)

	po := NewPooled(p, initial, operators.DefaultPairs(), operators.DefaultRemovalParams, rng)

	t0 := po.Warmup(50, 0.8)
	assert.Greater(t, t0, 0.0)

	po.SetTemperature(t0)
	po.Step(100, 0.99, telemetry.Nop{})

	assert.Equal(t, 100, po.Iterations())
	best, bestCost := po.Best()
	assert.LessOrEqual(t, bestCost, initialCost)
	require.NoError(t, best.Feasible(p))
	assert.Less(t, po.Temperature(), t0)
}

func TestALNSRecordsEveryIteration(t *testing.T) {
	p := searchProblem()
	store := telemetry.NewStore()
	_, rec := store.Open("test", "alns")

	params := DefaultParams()
	params.MaxIterations = 120
	a := NewALNS(params, operators.DefaultPairs(), rand.New(rand.NewSource(10)))
	a.Run(p, solution.New(p), rec)

	ids := store.List()
	require.Len(t, ids, 1)
	run, ok := store.Get(ids[0])
	require.True(t, ok)
	require.Len(t, run.Records, 120)
	assert.Equal(t, 0, run.Records[0].Iteration)
	assert.Equal(t, 119, run.Records[119].Iteration)
	// warm-up iterations carry no temperature
	assert.Nil(t, run.Records[0].Temperature)
}
