package sim

import "time"

// Stats is a snapshot of run counters. Event counts exclude the bootstrap event.
type Stats struct {
	State           SimState
	Cause           StopCause
	SimTime         float64 // time of the last dispatched event
	Events          int64   // dispatched events, both destinations
	GeneratorEvents int64
	ProcessorEvents int64
	PendingEvents   int

	TransitoryFinished bool
	TransitoryEndTime  float64
	TransitoryEvents   int64 // events dispatched when the transitory period ended

	StartedAt time.Time
	StoppedAt time.Time
}

// WallElapsed is the wall-clock duration of the run so far.
func (s Stats) WallElapsed() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.StoppedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.StoppedAt.Sub(s.StartedAt)
}

// EventsPerSecond is the dispatch rate in wall-clock time.
func (s Stats) EventsPerSecond() float64 {
	d := s.WallElapsed().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(s.Events) / d
}

// SteadyStateEvents is the number of events dispatched after the transitory period.
func (s Stats) SteadyStateEvents() int64 {
	if !s.TransitoryFinished {
		return 0
	}
	return s.Events - s.TransitoryEvents
}
