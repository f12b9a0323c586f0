// Package sim provides the discrete-event simulation kernel for network planning.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go, event_queue.go: SimEvent and the future event list, ordered by (time, insertion sequence)
//   - core.go: SimCore, the state machine (NOT_STARTED → RUNNING ⇄ PAUSED → STOPPED) and drive loop
//   - kernel.go: SimKernel, the lifecycle façade (SetNetPlan, ConfigureSimulation, Initialize, Run, Reset)
//
// # Architecture
//
// The sim package defines the component contract and the drive loop; the
// network state and concrete components live in sub-packages:
//   - sim/netplan/: nodes, links, demands and routes, with shortest paths over gonum graphs
//   - sim/components/: bundled generators and processors (connection arrivals, link failures, allocation)
//   - sim/trace/: dispatch and state-transition trace recording
//
// Component packages register their factories in DefaultRegistry from init()
// functions; the CLI resolves generators and processors by name.
//
// # Key Interfaces
//
//   - EventGenerator / EventProcessor: the two user components driven by the core
//   - Scheduler: the handle a component uses to schedule events and signal the core
//   - Listener: observer of state transitions and refresh hints
//   - NetworkState: the mutable state handed to components, cloneable for Reset
package sim
