package telemetry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janinge/drones2/internal/model"
)

// Run is one search run's trace held in memory.
type Run struct {
	ID       uuid.UUID
	Instance string
	Strategy string
	Started  time.Time
	Records  []IterationRecord
}

// BestCost is the best cost seen in the trace, or the zero value for an
// empty trace.
func (r *Run) BestCost() model.Cost {
	if len(r.Records) == 0 {
		return 0
	}
	return r.Records[len(r.Records)-1].BestCost
}

// Store keeps run traces in memory, keyed by run id. Safe for concurrent
// use; a live watch server reads while a search appends.
type Store struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*Run
}

func NewStore() *Store {
	return &Store{runs: make(map[uuid.UUID]*Run)}
}

// Open registers a new run and returns a recorder appending to it.
func (st *Store) Open(instance, strategy string) (*Run, Recorder) {
	run := &Run{
		ID:       uuid.New(),
		Instance: instance,
		Strategy: strategy,
		Started:  time.Now(),
	}
	st.mu.Lock()
	st.runs[run.ID] = run
	st.mu.Unlock()
	return run, &storeRecorder{store: st, id: run.ID}
}

func (st *Store) Get(id uuid.UUID) (*Run, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	run, ok := st.runs[id]
	if !ok {
		return nil, false
	}
	cp := *run
	cp.Records = append([]IterationRecord(nil), run.Records...)
	return &cp, true
}

// List returns run ids ordered by start time.
func (st *Store) List() []uuid.UUID {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(st.runs))
	for id := range st.runs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		return st.runs[ids[a]].Started.Before(st.runs[ids[b]].Started)
	})
	return ids
}

type storeRecorder struct {
	store *Store
	id    uuid.UUID
}

func (sr *storeRecorder) Record(rec IterationRecord) {
	sr.store.mu.Lock()
	if run, ok := sr.store.runs[sr.id]; ok {
		run.Records = append(run.Records, rec)
	}
	sr.store.mu.Unlock()
}
