package live

import (
	"github.com/janinge/drones2/internal/model"
	"github.com/janinge/drones2/internal/telemetry"
)

// Publisher adapts a broker into a telemetry.Recorder: it publishes an
// event whenever the best cost improves, so watchers see improvements
// without the full iteration firehose.
type Publisher struct {
	broker  EventBroker
	runID   string
	started bool
	best    model.Cost
}

func NewPublisher(broker EventBroker, runID string) *Publisher {
	return &Publisher{broker: broker, runID: runID}
}

func (pb *Publisher) Record(rec telemetry.IterationRecord) {
	if pb.started && rec.BestCost >= pb.best {
		return
	}
	pb.started = true
	pb.best = rec.BestCost
	pb.broker.Publish(pb.runID, ProgressEvent{
		Type: "search.best",
		Data: map[string]any{
			"iteration": rec.Iteration,
			"best_cost": int64(rec.BestCost),
		},
	})
}

// Finish announces the end of a run.
func (pb *Publisher) Finish() {
	pb.broker.Publish(pb.runID, ProgressEvent{
		Type: "run.finished",
		Data: map[string]any{"best_cost": int64(pb.best)},
	})
}
