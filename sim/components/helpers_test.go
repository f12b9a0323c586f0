package components

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netplan-sim/netsim/sim"
	"github.com/netplan-sim/netsim/sim/internal/testutil"
	"github.com/netplan-sim/netsim/sim/netplan"
)

func triangle(t *testing.T) *netplan.NetPlan {
	t.Helper()
	return testutil.Triangle(t)
}

// recordingScheduler is a Scheduler that collects scheduled events instead
// of running them.
type recordingScheduler struct {
	now        float64
	scheduled  []*sim.SimEvent
	ended      bool
	transitory bool
	statsOff   bool
	rng        *sim.PartitionedRNG
}

func newRecordingScheduler(now float64) *recordingScheduler {
	return &recordingScheduler{now: now, rng: sim.NewPartitionedRNG(1)}
}

func (s *recordingScheduler) Now() float64 { return s.now }

func (s *recordingScheduler) Schedule(ev *sim.SimEvent) error {
	s.scheduled = append(s.scheduled, ev)
	return nil
}

func (s *recordingScheduler) ScheduleAt(time float64, dest sim.Destination, kind string, payload any) error {
	return s.Schedule(sim.NewEvent(time, dest, kind, payload))
}

func (s *recordingScheduler) EndSimulation()          { s.ended = true }
func (s *recordingScheduler) EndTransitory()          { s.transitory = false }
func (s *recordingScheduler) InTransitory() bool      { return s.transitory }
func (s *recordingScheduler) StatisticsEnabled() bool { return !s.statsOff }

func (s *recordingScheduler) Rand(subsystem string) *rand.Rand {
	return s.rng.ForSubsystem(subsystem)
}

func (s *recordingScheduler) kinds() []string {
	out := make([]string, 0, len(s.scheduled))
	for _, ev := range s.scheduled {
		out = append(out, ev.Kind)
	}
	return out
}

// initComponent applies the component schema to params and initializes it
// against np with default global parameters.
func initComponent(t *testing.T, c sim.Component, np *netplan.NetPlan, params sim.Params) {
	t.Helper()
	full, err := sim.ApplySchema("test", c.Parameters(), params)
	require.NoError(t, err)
	if v, ok := c.(sim.Validator); ok {
		require.NoError(t, v.ValidateParams(full))
	}
	global, err := sim.ParseGlobalParams(nil)
	require.NoError(t, err)
	_, simParams, err := sim.ParseSimParams(nil)
	require.NoError(t, err)
	require.NoError(t, c.Initialize(np, full, simParams, global))
}
