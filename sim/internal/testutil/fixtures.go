// Package testutil provides shared test fixtures for packages under sim/:
// reference topologies and float assertion helpers.
package testutil

import (
	"math"
	"testing"

	"github.com/netplan-sim/netsim/sim/netplan"
)

// TriangleYAML is a three-node topology with a short two-hop path
// (1->2->3, 200 km) and a long direct link (1->3, 500 km).
const TriangleYAML = `
nodes: [{id: 1, name: A}, {id: 2, name: B}, {id: 3, name: C}]
links:
  - {id: 10, from: 1, to: 2, capacity: 10, length_km: 100}
  - {id: 11, from: 2, to: 3, capacity: 10, length_km: 100}
  - {id: 12, from: 1, to: 3, capacity: 4, length_km: 500}
demands:
  - {id: 1, from: 1, to: 3, offered_traffic: 6}
  - {id: 2, from: 2, to: 3, offered_traffic: 0}
`

// Triangle parses TriangleYAML.
func Triangle(t *testing.T) *netplan.NetPlan {
	t.Helper()
	np, err := netplan.Parse([]byte(TriangleYAML))
	if err != nil {
		t.Fatalf("parsing triangle topology: %v", err)
	}
	return np
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
