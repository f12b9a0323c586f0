package sim

import "fmt"

// Destination selects which component an event is delivered to.
type Destination int

const (
	// ToGenerator delivers the event to the event generator.
	ToGenerator Destination = iota
	// ToProcessor delivers the event to the event processor.
	ToProcessor
)

func (d Destination) String() string {
	switch d {
	case ToGenerator:
		return "generator"
	case ToProcessor:
		return "processor"
	default:
		return fmt.Sprintf("Destination(%d)", int(d))
	}
}

// KindBootstrap is the kind of the implicit event handed to the generator
// when a run starts, so it can seed the future event list.
const KindBootstrap = "bootstrap"

// SimEvent is a timestamped message for a generator or processor.
// Once scheduled it must not be modified.
type SimEvent struct {
	Time    float64     // simulated time at which the event fires
	Dest    Destination // receiving component
	Kind    string      // free-form label, used in logs and traces
	Payload any         // opaque to the kernel

	seq       int64 // assigned by EventQueue.Schedule; FIFO tie-break for equal times
	scheduled bool
}

// NewEvent builds an event. The sequence number is assigned when it is scheduled.
func NewEvent(time float64, dest Destination, kind string, payload any) *SimEvent {
	return &SimEvent{Time: time, Dest: dest, Kind: kind, Payload: payload}
}

// Seq returns the insertion sequence number, or -1 if the event was never scheduled.
func (e *SimEvent) Seq() int64 {
	if !e.scheduled {
		return -1
	}
	return e.seq
}

func (e *SimEvent) String() string {
	return fmt.Sprintf("%s@%g->%s#%d", e.Kind, e.Time, e.Dest, e.seq)
}

// before reports whether e is ordered ahead of o: (Time, seq) ascending.
func (e *SimEvent) before(o *SimEvent) bool {
	if e.Time != o.Time {
		return e.Time < o.Time
	}
	return e.seq < o.seq
}
