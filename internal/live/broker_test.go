package live

import (
	"testing"
	"time"

	"github.com/janinge/drones2/internal/telemetry"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	rid := "r1"
	ch := b.Subscribe(rid)

	evt := ProgressEvent{Type: "search.best", Data: map[string]any{"best_cost": int64(42)}}
	b.Publish(rid, evt)

	select {
	case got := <-ch:
		if got.Type != evt.Type {
			t.Fatalf("got type %s, want %s", got.Type, evt.Type)
		}
		if got.Data["best_cost"].(int64) != 42 {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe(rid, ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
		// acceptable if already drained and closed
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("r2")
	for i := 0; i < 20; i++ {
		b.Publish("r2", ProgressEvent{Type: "search.best"})
	}
	// buffer is 8; publishing never blocked
	if got := len(ch); got != 8 {
		t.Fatalf("buffered %d events, want 8", got)
	}
}

func TestPublisherEmitsOnlyImprovements(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("r3")
	pub := NewPublisher(b, "r3")

	pub.Record(telemetry.IterationRecord{Iteration: 0, BestCost: 100})
	pub.Record(telemetry.IterationRecord{Iteration: 1, BestCost: 100})
	pub.Record(telemetry.IterationRecord{Iteration: 2, BestCost: 90})

	if got := len(ch); got != 2 {
		t.Fatalf("published %d events, want 2", got)
	}
	first := <-ch
	if first.Data["best_cost"].(int64) != 100 {
		t.Fatalf("first event: %+v", first.Data)
	}
	second := <-ch
	if second.Data["iteration"].(int) != 2 {
		t.Fatalf("second event: %+v", second.Data)
	}
}
