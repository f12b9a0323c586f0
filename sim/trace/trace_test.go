package trace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSimulationTrace_RecordDispatch_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for events
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN a dispatch record is recorded
	st.RecordDispatch(DispatchRecord{Seq: 0, Time: 1.5, Destination: "processor", Kind: "connection-request"})

	// THEN the trace contains one dispatch record with correct data
	if len(st.Dispatches) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(st.Dispatches))
	}
	if st.Dispatches[0].Kind != "connection-request" {
		t.Errorf("expected kind connection-request, got %s", st.Dispatches[0].Kind)
	}
	if st.Dispatches[0].Time != 1.5 {
		t.Errorf("expected time 1.5, got %g", st.Dispatches[0].Time)
	}
}

func TestSimulationTrace_MaxDispatches_DropsOverflow(t *testing.T) {
	// GIVEN a trace that keeps at most 2 dispatches
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents, MaxDispatches: 2})

	// WHEN 5 dispatches are recorded
	for i := range 5 {
		st.RecordDispatch(DispatchRecord{Seq: int64(i), Time: float64(i)})
	}

	// THEN the first 2 are kept and 3 are counted as dropped
	require.Len(t, st.Dispatches, 2)
	assert.Equal(t, int64(0), st.Dispatches[0].Seq)
	assert.Equal(t, int64(1), st.Dispatches[1].Seq)
	assert.Equal(t, int64(3), st.Dropped)
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN transitions and dispatches are interleaved
	st.RecordTransition(StateRecord{State: "RUNNING"})
	st.RecordDispatch(DispatchRecord{Seq: 0, Time: 1, Destination: "generator", Kind: "arrival"})
	st.RecordDispatch(DispatchRecord{Seq: 1, Time: 1, Destination: "processor", Kind: "request"})
	st.RecordTransition(StateRecord{State: "STOPPED", Time: 1})

	// THEN order is preserved within each list
	if len(st.Dispatches) != 2 || st.Dispatches[0].Seq != 0 || st.Dispatches[1].Seq != 1 {
		t.Error("dispatch order not preserved")
	}
	if len(st.Transitions) != 2 || st.Transitions[0].State != "RUNNING" || st.Transitions[1].State != "STOPPED" {
		t.Error("transition order not preserved")
	}
}

func TestSimulationTrace_WriteYAML_RoundTripsSummary(t *testing.T) {
	// GIVEN a small trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.RunID = "run-1"
	st.RecordDispatch(DispatchRecord{Seq: 0, Time: 2, Destination: "processor", Kind: "x"})
	st.RecordTransition(StateRecord{State: "STOPPED", Time: 2})

	// WHEN written as YAML
	var buf bytes.Buffer
	require.NoError(t, st.WriteYAML(&buf))

	// THEN the document carries the summary and the run id
	var doc struct {
		Summary TraceSummary `yaml:"summary"`
		Trace   struct {
			RunID string `yaml:"run_id"`
		} `yaml:"trace"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc.Trace.RunID)
	assert.Equal(t, 1, doc.Summary.TotalDispatches)
	assert.Equal(t, "STOPPED", doc.Summary.FinalState)
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"events", true},
		{"", true}, // empty defaults to none
		{"decisions", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
