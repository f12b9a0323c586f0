package trace

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// TraceLevel controls the verbosity of dispatch tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every dispatched event and every state transition.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level         TraceLevel `yaml:"level"`
	MaxDispatches int        `yaml:"max_dispatches"` // 0 = keep every dispatch record
}

// SimulationTrace collects dispatch and state records during one run.
// Written by the simulation goroutine only; read it after the run stops.
type SimulationTrace struct {
	Config      TraceConfig      `yaml:"config"`
	RunID       string           `yaml:"run_id"`
	Dispatches  []DispatchRecord `yaml:"dispatches"`
	Transitions []StateRecord    `yaml:"transitions"`
	Dropped     int64            `yaml:"dropped"` // dispatches not kept because of MaxDispatches
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Dispatches:  make([]DispatchRecord, 0),
		Transitions: make([]StateRecord, 0),
	}
}

// RecordDispatch appends a dispatch record, honoring MaxDispatches.
func (st *SimulationTrace) RecordDispatch(record DispatchRecord) {
	if st.Config.MaxDispatches > 0 && len(st.Dispatches) >= st.Config.MaxDispatches {
		st.Dropped++
		return
	}
	st.Dispatches = append(st.Dispatches, record)
}

// RecordTransition appends a state transition record.
func (st *SimulationTrace) RecordTransition(record StateRecord) {
	st.Transitions = append(st.Transitions, record)
}

// WriteYAML encodes the trace together with its summary.
func (st *SimulationTrace) WriteYAML(w io.Writer) error {
	doc := struct {
		Summary *TraceSummary    `yaml:"summary"`
		Trace   *SimulationTrace `yaml:"trace"`
	}{Summarize(st), st}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return enc.Close()
}
