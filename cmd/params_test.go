package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netplan-sim/netsim/sim"
)

func TestParseParamFlags(t *testing.T) {
	// GIVEN two flag values, the second overriding one key of the first
	values := []string{`simEvents=1000 simTime=-1`, `simEvents=50 label="two words"`}

	// WHEN they are parsed
	p, err := parseParamFlags(values)

	// THEN later values win and quoted values keep their spaces
	require.NoError(t, err)
	assert.Equal(t, sim.Params{"simEvents": "50", "simTime": "-1", "label": "two words"}, p)
}

func TestParseParamFlags_Empty(t *testing.T) {
	p, err := parseParamFlags(nil)

	require.NoError(t, err)
	assert.Empty(t, p)
	assert.NotNil(t, p)
}

func TestMergeParams_DoesNotModifyInputs(t *testing.T) {
	base := map[string]string{"a": "1", "b": "2"}
	overrides := sim.Params{"b": "20", "c": "30"}

	merged := mergeParams(base, overrides)

	assert.Equal(t, sim.Params{"a": "1", "b": "20", "c": "30"}, merged)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, base)
}

func TestMergeParams_NilBase(t *testing.T) {
	merged := mergeParams(nil, sim.Params{"x": "1"})
	assert.Equal(t, sim.Params{"x": "1"}, merged)
}
