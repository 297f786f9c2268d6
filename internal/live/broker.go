// Package live streams search progress to watchers while a run is in
// flight: an event broker (in-memory or Redis) fans out per-run events,
// and a watch server exposes them over websocket next to /metrics.
package live

import (
	"sync"
)

type ProgressEvent struct {
	Type string
	Data map[string]any
}

// EventBroker fans run-scoped events out to subscribers. Slow
// subscribers drop events rather than stall the search.
type EventBroker interface {
	Subscribe(runID string) chan ProgressEvent
	Unsubscribe(runID string, ch chan ProgressEvent)
	Publish(runID string, evt ProgressEvent)
}

type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan ProgressEvent]struct{} // runId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan ProgressEvent]struct{}{}}
}

func (b *Broker) Subscribe(runID string) chan ProgressEvent {
	ch := make(chan ProgressEvent, 8)
	b.mu.Lock()
	if b.subs[runID] == nil {
		b.subs[runID] = map[chan ProgressEvent]struct{}{}
	}
	b.subs[runID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(runID string, ch chan ProgressEvent) {
	b.mu.Lock()
	if m := b.subs[runID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, runID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(runID string, evt ProgressEvent) {
	b.mu.Lock()
	m := b.subs[runID]
	for ch := range m {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
