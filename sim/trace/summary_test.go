package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDispatches != 0 || len(summary.ByKind) != 0 || summary.FinalState != "" {
		t.Errorf("expected zero summary, got %+v", summary)
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDispatches != 0 {
		t.Errorf("expected 0 dispatches, got %d", summary.TotalDispatches)
	}
	if len(summary.ByDestination) != 0 || len(summary.ByKind) != 0 {
		t.Error("expected empty distributions")
	}
	if summary.FirstTime != 0 || summary.LastTime != 0 {
		t.Error("expected zero times")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed destinations and kinds
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})
	st.RecordDispatch(DispatchRecord{Seq: 0, Time: 1, Destination: "generator", Kind: "arrival"})
	st.RecordDispatch(DispatchRecord{Seq: 1, Time: 1, Destination: "processor", Kind: "request"})
	st.RecordDispatch(DispatchRecord{Seq: 2, Time: 4, Destination: "processor", Kind: "release"})
	st.RecordTransition(StateRecord{State: "RUNNING"})
	st.RecordTransition(StateRecord{State: "STOPPED", Time: 4, Reason: "simulation ended by processor at t=4"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts and bounds match
	if summary.TotalDispatches != 3 {
		t.Errorf("expected 3 dispatches, got %d", summary.TotalDispatches)
	}
	if summary.ByDestination["processor"] != 2 || summary.ByDestination["generator"] != 1 {
		t.Errorf("unexpected destination distribution %v", summary.ByDestination)
	}
	if summary.ByKind["arrival"] != 1 || summary.ByKind["request"] != 1 || summary.ByKind["release"] != 1 {
		t.Errorf("unexpected kind distribution %v", summary.ByKind)
	}
	if summary.FirstTime != 1 || summary.LastTime != 4 {
		t.Errorf("expected times [1,4], got [%g,%g]", summary.FirstTime, summary.LastTime)
	}
	if summary.FinalState != "STOPPED" || summary.FinalReason == "" {
		t.Errorf("expected final STOPPED with reason, got %q %q", summary.FinalState, summary.FinalReason)
	}
}
