//go:build ignore

package components

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/netplan-sim/netsim/sim"
	"github.com/netplan-sim/netsim/sim/netplan"
)

// =============================================================================
// H1: Single-Link Blocking Matches Erlang B
//
// Hypothesis: With Poisson arrivals, exponential holding times and unit
// bandwidth connections, the blocking probability measured by the
// shortest-path allocator on a single link of capacity C offered A Erlangs
// converges to the Erlang B formula B(C, A).
//
// The run is event-limited with a transitory period so that the empty
// initial state does not bias the estimate downwards.
//
// Refuted if: For any (C, A) pair below, the measured blocking probability
// differs from B(C, A) by more than 10% relative (or 0.005 absolute when
// B(C, A) < 0.01) after 400k events.
//
// Independent variable: offered traffic A and capacity C
// Controlled variables: seed, meanHoldingTime=1, connectionBandwidth=1
// Dependent variable: measured / analytic blocking probability
//
// Usage: copy into sim/components and run
//   go test -run TestH1ErlangB -v ./sim/components/
// Results are written to h1_erlang_b.csv in the working directory.
// =============================================================================

// erlangB is the Erlang B blocking probability, computed with the stable
// recurrence B(k) = A*B(k-1) / (k + A*B(k-1)).
func erlangB(capacity int, traffic float64) float64 {
	b := 1.0
	for k := 1; k <= capacity; k++ {
		b = traffic * b / (float64(k) + traffic*b)
	}
	return b
}

type h1Point struct {
	capacity int
	traffic  float64
}

func h1Points() []h1Point {
	return []h1Point{
		{5, 2}, {5, 4}, {10, 5}, {10, 8}, {10, 12}, {20, 15}, {20, 25},
	}
}

func h1Network(p h1Point) *netplan.NetPlan {
	np := netplan.New()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(np.AddNode(1, "A"))
	must(np.AddNode(2, "B"))
	must(np.AddLink(netplan.Link{ID: 1, From: 1, To: 2, Capacity: float64(p.capacity), LengthKm: 1, Up: true}))
	must(np.AddDemand(netplan.Demand{ID: 1, From: 1, To: 2, OfferedTraffic: p.traffic}))
	return np
}

func TestH1ErlangB(t *testing.T) {
	f, err := os.Create("h1_erlang_b.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	_ = w.Write([]string{"capacity", "traffic", "analytic", "measured", "ratio"})

	for _, p := range h1Points() {
		t.Run(fmt.Sprintf("C%d_A%g", p.capacity, p.traffic), func(t *testing.T) {
			k := sim.NewKernel()
			if err := k.SetNetPlan(h1Network(p)); err != nil {
				t.Fatal(err)
			}
			alloc := NewShortestPathAllocator()
			err := k.ConfigureSimulation(
				sim.Params{"simEvents": "400000", "transitoryEvents": "40000", "randomSeed": "42"}, nil,
				NewConnectionGenerator(), nil, alloc, nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := k.Initialize(); err != nil {
				t.Fatal(err)
			}
			if err := k.Run(context.Background()); err != nil {
				t.Fatal(err)
			}

			want := erlangB(p.capacity, p.traffic)
			got := alloc.Stats().BlockingProbability()
			ratio := got / want
			_ = w.Write([]string{
				fmt.Sprint(p.capacity), fmt.Sprint(p.traffic),
				fmt.Sprintf("%.6f", want), fmt.Sprintf("%.6f", got), fmt.Sprintf("%.4f", ratio),
			})
			t.Logf("C=%d A=%g analytic=%.5f measured=%.5f ratio=%.3f", p.capacity, p.traffic, want, got, ratio)

			if want < 0.01 {
				if math.Abs(got-want) > 0.005 {
					t.Errorf("absolute error %.5f exceeds 0.005", math.Abs(got-want))
				}
			} else if math.Abs(ratio-1) > 0.10 {
				t.Errorf("relative error %.3f exceeds 10%%", math.Abs(ratio-1))
			}
		})
	}
}
