package problem

import (
	"sort"

	"github.com/janinge/drones2/internal/model"
)

// WindowIndex holds the time windows of all calls sorted by opening and by
// closing time, so construction can sweep over window events in time order.
type WindowIndex struct {
	byStart []WindowEvent
	byEnd   []WindowEvent
}

// WindowEvent pairs an event time with the pickup-leg id of its call.
type WindowEvent struct {
	At   model.Time
	Call model.CallID
}

func newWindowIndex(windows []model.Window) WindowIndex {
	starts := make([]WindowEvent, len(windows))
	ends := make([]WindowEvent, len(windows))
	for i, w := range windows {
		starts[i] = WindowEvent{At: w.Start, Call: model.PickupCall(i + 1)}
		ends[i] = WindowEvent{At: w.End, Call: model.PickupCall(i + 1)}
	}
	sort.Slice(starts, func(a, b int) bool { return starts[a].At < starts[b].At })
	sort.Slice(ends, func(a, b int) bool { return ends[a].At < ends[b].At })
	return WindowIndex{byStart: starts, byEnd: ends}
}

// Starts returns every window opening in ascending time order.
func (x *WindowIndex) Starts() []WindowEvent { return x.byStart }

// Ends returns every window closing in ascending time order.
func (x *WindowIndex) Ends() []WindowEvent { return x.byEnd }

// EndsFrom returns the window closings at or after t in ascending order.
func (x *WindowIndex) EndsFrom(t model.Time) []WindowEvent {
	i := sort.Search(len(x.byEnd), func(i int) bool { return x.byEnd[i].At >= t })
	return x.byEnd[i:]
}
