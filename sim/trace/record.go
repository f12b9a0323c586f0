// Package trace provides dispatch-trace recording for simulation runs.
// This package has no dependencies on sim/ and stores pure data types.
package trace

// DispatchRecord captures one event handed to a generator or processor.
type DispatchRecord struct {
	Seq         int64   `yaml:"seq"`
	Time        float64 `yaml:"time"`
	Destination string  `yaml:"destination"`
	Kind        string  `yaml:"kind"`
}

// StateRecord captures one simulation state transition.
type StateRecord struct {
	State  string  `yaml:"state"`
	Time   float64 `yaml:"time"`
	Reason string  `yaml:"reason,omitempty"`
}
