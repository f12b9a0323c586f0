package components

import "github.com/netplan-sim/netsim/sim"

// Registered component names.
const (
	ConnectionGeneratorName   = "connection-generator"
	FailureGeneratorName      = "failure-generator"
	ShortestPathAllocatorName = "shortest-path-allocator"
)

func init() {
	Register(sim.DefaultRegistry)
}

// Register adds the bundled components to r.
func Register(r *sim.Registry) {
	r.RegisterGenerator(ConnectionGeneratorName, func() sim.EventGenerator { return NewConnectionGenerator() })
	r.RegisterGenerator(FailureGeneratorName, func() sim.EventGenerator { return NewFailureGenerator() })
	r.RegisterProcessor(ShortestPathAllocatorName, func() sim.EventProcessor { return NewShortestPathAllocator() })
}
