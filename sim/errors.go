package sim

import (
	"errors"
	"fmt"
)

// ErrEndSimulation is returned (or wrapped) by a component to request a graceful stop.
// It is equivalent to calling Scheduler.EndSimulation from inside ProcessEvent.
var ErrEndSimulation = errors.New("end of simulation requested")

// InvalidEventError reports a malformed event or a causality violation
// (an event scheduled before the current simulated time).
type InvalidEventError struct {
	Event  *SimEvent
	Now    float64
	Reason string
}

func (e *InvalidEventError) Error() string {
	if e.Event == nil {
		return fmt.Sprintf("invalid event: %s", e.Reason)
	}
	return fmt.Sprintf("invalid event %q at t=%g (now=%g): %s", e.Event.Kind, e.Event.Time, e.Now, e.Reason)
}

// InvalidConfigurationError reports a missing or invalid parameter at configure time.
type InvalidConfigurationError struct {
	Scope string // "simulation", "global", "generator", "processor", "kernel"
	Param string
	Err   error
}

func (e *InvalidConfigurationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("invalid %s configuration: %v", e.Scope, e.Err)
	}
	return fmt.Sprintf("invalid %s parameter %q: %v", e.Scope, e.Param, e.Err)
}

func (e *InvalidConfigurationError) Unwrap() error { return e.Err }

// IllegalStateError reports an operation requested in a state that forbids it.
type IllegalStateError struct {
	Op    string
	State SimState
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s", e.Op, e.State)
}

// ComponentFailure wraps an unhandled error (or recovered panic) raised by a
// generator or processor.
type ComponentFailure struct {
	Role string // "generator" or "processor"
	Op   string // "initialize", "processEvent", "finishTransitory", "finish"
	Err  error
}

func (e *ComponentFailure) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Role, e.Op, e.Err)
}

func (e *ComponentFailure) Unwrap() error { return e.Err }

// EndOfSimulation is the stop reason delivered to listeners when a component
// ended the run on purpose. It is a signal, not a failure.
type EndOfSimulation struct {
	Role  string
	Time  float64
	Cause error // non-nil when the component returned an error wrapping ErrEndSimulation
}

func (e *EndOfSimulation) Error() string {
	return fmt.Sprintf("simulation ended by %s at t=%g", e.Role, e.Time)
}

func (e *EndOfSimulation) Unwrap() error { return ErrEndSimulation }

// IsGracefulStop reports whether a stop reason denotes a normal completion:
// nil (exhaustion, limits, external stop) or an end-of-simulation signal.
func IsGracefulStop(reason error) bool {
	if reason == nil {
		return true
	}
	var failure *ComponentFailure
	if errors.As(reason, &failure) {
		return false
	}
	return errors.Is(reason, ErrEndSimulation)
}

func configError(scope, param string, err error) error {
	return &InvalidConfigurationError{Scope: scope, Param: param, Err: err}
}
