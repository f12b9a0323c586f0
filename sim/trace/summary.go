package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDispatches   int            `yaml:"total_dispatches"`
	ByDestination     map[string]int `yaml:"by_destination"`
	ByKind            map[string]int `yaml:"by_kind"`
	FirstTime         float64        `yaml:"first_time"`
	LastTime          float64        `yaml:"last_time"`
	FinalState        string         `yaml:"final_state"`
	FinalReason       string         `yaml:"final_reason,omitempty"`
	DroppedDispatches int64          `yaml:"dropped_dispatches"`
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ByDestination: make(map[string]int),
		ByKind:        make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDispatches = len(st.Dispatches)
	summary.DroppedDispatches = st.Dropped
	for i, d := range st.Dispatches {
		summary.ByDestination[d.Destination]++
		summary.ByKind[d.Kind]++
		if i == 0 {
			summary.FirstTime = d.Time
		}
		summary.LastTime = d.Time
	}

	if n := len(st.Transitions); n > 0 {
		summary.FinalState = st.Transitions[n-1].State
		summary.FinalReason = st.Transitions[n-1].Reason
	}
	return summary
}
