// Package telemetry collects per-iteration search traces. A search pushes
// one IterationRecord per iteration into a Recorder; sinks decide where
// the records end up (CSV file, Postgres, in-memory store).
package telemetry

import "github.com/janinge/drones2/internal/model"

// IterationRecord is one row of a search trace. Temperature is nil until
// the search has derived a cooling schedule.
type IterationRecord struct {
	Iteration     int
	CandidateCost model.Cost
	CandidateSeen int
	IncumbentCost model.Cost
	BestCost      model.Cost
	Evaluations   int
	Infeasible    int
	Time          float64
	Temperature   *float64
}

// Recorder receives iteration records in order. Implementations keep any
// I/O error sticky and surface it from Close.
type Recorder interface {
	Record(rec IterationRecord)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(IterationRecord) {}

// Multi fans records out to several recorders.
type Multi []Recorder

func (m Multi) Record(rec IterationRecord) {
	for _, r := range m {
		r.Record(rec)
	}
}
