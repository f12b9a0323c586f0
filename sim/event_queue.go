package sim

import (
	"container/heap"
	"math"
)

// eventHeap implements heap.Interface ordered by (Time, seq).
type eventHeap []*SimEvent

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].before(h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*SimEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// EventQueue is the future event list. Events are delivered in (Time, seq)
// order, so equal timestamps keep their scheduling order regardless of
// which component scheduled them.
//
// Not safe for concurrent use: only the simulation goroutine touches it.
type EventQueue struct {
	events  eventHeap
	nextSeq int64
	now     float64
}

// NewEventQueue creates an empty queue with simulated time 0.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make(eventHeap, 0)}
	heap.Init(&q.events)
	return q
}

// Schedule inserts an event and assigns its sequence number.
// Events in the past of Now() are rejected with InvalidEventError.
func (q *EventQueue) Schedule(ev *SimEvent) error {
	if ev == nil {
		return &InvalidEventError{Now: q.now, Reason: "nil event"}
	}
	if math.IsNaN(ev.Time) || math.IsInf(ev.Time, 0) {
		return &InvalidEventError{Event: ev, Now: q.now, Reason: "timestamp is not finite"}
	}
	if ev.Time < 0 {
		return &InvalidEventError{Event: ev, Now: q.now, Reason: "negative timestamp"}
	}
	if ev.Time < q.now {
		return &InvalidEventError{Event: ev, Now: q.now, Reason: "scheduled in the past"}
	}
	if ev.Dest != ToGenerator && ev.Dest != ToProcessor {
		return &InvalidEventError{Event: ev, Now: q.now, Reason: "unknown destination"}
	}
	if ev.scheduled {
		return &InvalidEventError{Event: ev, Now: q.now, Reason: "event already scheduled"}
	}
	ev.seq = q.nextSeq
	ev.scheduled = true
	q.nextSeq++
	heap.Push(&q.events, ev)
	return nil
}

// Next removes and returns the earliest event and advances Now() to its time.
func (q *EventQueue) Next() (*SimEvent, error) {
	if q.events.Len() == 0 {
		return nil, &IllegalStateError{Op: "next on empty event list", State: Running}
	}
	ev := heap.Pop(&q.events).(*SimEvent)
	if ev.Time < q.now {
		return nil, &InvalidEventError{Event: ev, Now: q.now, Reason: "simulated time would regress"}
	}
	q.now = ev.Time
	return ev, nil
}

// Peek returns the earliest event without removing it, or nil if empty.
func (q *EventQueue) Peek() *SimEvent {
	if q.events.Len() == 0 {
		return nil
	}
	return q.events[0]
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return q.events.Len() }

// IsEmpty reports whether no events are pending.
func (q *EventQueue) IsEmpty() bool { return q.events.Len() == 0 }

// Now returns the time of the last event handed out by Next.
func (q *EventQueue) Now() float64 { return q.now }

// Clear drops all pending events. Sequence numbers keep increasing and
// simulated time is not rewound.
func (q *EventQueue) Clear() {
	q.events = make(eventHeap, 0)
}
