package sim

import (
	"io"
	"math/rand"
)

// NetworkState is the network snapshot a simulation mutates. The kernel only
// passes it through; components type-assert it to the concrete type they know.
type NetworkState interface {
	Clone() NetworkState
}

// Component is the capability set shared by generators and processors.
//
// All methods are called from the simulation goroutine, one at a time.
type Component interface {
	// Description is a human-readable summary shown by tooling.
	Description() string

	// Parameters declares the accepted parameter names with their defaults.
	Parameters() []ParamDef

	// Initialize is called once per configured run, before the run starts.
	// params has every declared parameter filled in.
	Initialize(state NetworkState, params, simParams, globalParams Params) error

	// ProcessEvent handles one event addressed to this component. New events,
	// end-of-simulation and end-of-transitory requests go through s.
	// Returning ErrEndSimulation (or an error wrapping it) ends the run gracefully.
	ProcessEvent(ev *SimEvent, s Scheduler) error

	// FinishTransitory is called once when the transitory period ends.
	FinishTransitory(now float64) error

	// Finish is called once when the run stops; w receives the component's report.
	Finish(w io.Writer, now float64) error
}

// EventGenerator produces events from the current network state. It receives
// the bootstrap event plus any event addressed to the generator.
type EventGenerator interface {
	Component
}

// EventProcessor consumes processor-addressed events and mutates the network state.
type EventProcessor interface {
	Component
}

// Validator is implemented by components that need checks beyond the schema
// (ranges, cross-parameter constraints). It runs at configure time.
type Validator interface {
	ValidateParams(params Params) error
}

// Scheduler is the handle a component uses during ProcessEvent. Calls are
// synchronous and only valid for the duration of that call.
type Scheduler interface {
	// Now is the current simulated time.
	Now() float64

	// Schedule inserts ev into the future event list.
	Schedule(ev *SimEvent) error

	// ScheduleAt builds and schedules an event.
	ScheduleAt(time float64, dest Destination, kind string, payload any) error

	// EndSimulation stops the run once the current call returns.
	EndSimulation()

	// EndTransitory ends the transitory period once the current call returns.
	// Without a configured transitoryEvents or transitoryTime there is no
	// transitory period: the request is ignored and FinishTransitory is never
	// called. Repeated requests end the period once.
	EndTransitory()

	// InTransitory reports whether the transitory period is still running.
	InTransitory() bool

	// StatisticsEnabled reports whether components should collect statistics.
	StatisticsEnabled() bool

	// Rand returns a deterministic random stream for the named subsystem.
	Rand(subsystem string) *rand.Rand
}
