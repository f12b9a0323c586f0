package components

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplan-sim/netsim/sim"
)

type runResult struct {
	stats  sim.Stats
	report string
	routes int
}

func runConnections(t *testing.T, simParams sim.Params) runResult {
	t.Helper()
	np := triangle(t)

	gen, err := sim.DefaultRegistry.NewGenerator(ConnectionGeneratorName)
	require.NoError(t, err)
	proc, err := sim.DefaultRegistry.NewProcessor(ShortestPathAllocatorName)
	require.NoError(t, err)

	k := sim.NewKernel()
	require.NoError(t, k.SetNetPlan(np))
	require.NoError(t, k.ConfigureSimulation(simParams, nil,
		gen, sim.Params{"meanHoldingTime": "2"}, proc, sim.Params{"routingType": "km"}))
	require.NoError(t, k.Initialize())
	require.NoError(t, k.Run(context.Background()))

	core := k.SimCore()
	require.Equal(t, sim.Stopped, core.State())
	require.NoError(t, core.Reason())
	return runResult{stats: core.Stats(), report: k.Report(), routes: len(np.Routes())}
}

func TestEndToEnd_ConnectionsAreDeterministicForFixedSeed(t *testing.T) {
	params := sim.Params{"simEvents": "2000", "transitoryEvents": "200", "randomSeed": "7"}

	first := runConnections(t, params)
	second := runConnections(t, params)

	assert.Equal(t, int64(2000), first.stats.Events)
	assert.Equal(t, sim.CauseEventLimit, first.stats.Cause)
	assert.True(t, first.stats.TransitoryFinished)
	assert.Equal(t, int64(200), first.stats.TransitoryEvents)
	assert.Equal(t, first.report, second.report)
	assert.Equal(t, first.stats.SimTime, second.stats.SimTime)
	assert.Equal(t, first.routes, second.routes)
	assert.Contains(t, first.report, ConnectionGeneratorName)
	assert.Contains(t, first.report, ShortestPathAllocatorName)
}

func TestEndToEnd_DifferentSeedsDiverge(t *testing.T) {
	a := runConnections(t, sim.Params{"simEvents": "500", "randomSeed": "1"})
	b := runConnections(t, sim.Params{"simEvents": "500", "randomSeed": "2"})

	assert.NotEqual(t, a.stats.SimTime, b.stats.SimTime)
}

func TestEndToEnd_FailuresDropConnectionsUntilTimeLimit(t *testing.T) {
	np := triangle(t)

	k := sim.NewKernel()
	require.NoError(t, k.SetNetPlan(np))
	require.NoError(t, k.ConfigureSimulation(sim.Params{"simTime": "500"}, nil,
		NewFailureGenerator(), sim.Params{"mttf": "10", "mttr": "5"},
		NewShortestPathAllocator(), nil))
	require.NoError(t, k.Initialize())
	require.NoError(t, k.Run(context.Background()))

	stats := k.SimCore().Stats()
	assert.Equal(t, sim.CauseTimeLimit, stats.Cause)
	assert.LessOrEqual(t, stats.SimTime, 500.0)
	assert.Greater(t, k.Generator().(*FailureGenerator).Failures(), int64(0))
}

func TestRegister_AddsBundledComponents(t *testing.T) {
	r := sim.NewRegistry()
	Register(r)

	assert.Equal(t, []string{ConnectionGeneratorName, FailureGeneratorName}, r.GeneratorNames())
	assert.Equal(t, []string{ShortestPathAllocatorName}, r.ProcessorNames())
	assert.Panics(t, func() { Register(r) }, "duplicate names")
}
