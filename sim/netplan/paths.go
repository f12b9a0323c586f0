package netplan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// WeightFunc gives the cost of traversing a link; ok=false excludes the link.
// Costs must be non-negative.
type WeightFunc func(l *Link) (cost float64, ok bool)

// HopWeight counts hops over links that are up.
func HopWeight(l *Link) (float64, bool) {
	return 1, l.Up
}

// LengthWeight sums link lengths over links that are up.
func LengthWeight(l *Link) (float64, bool) {
	return l.LengthKm, l.Up
}

// ShortestPath returns the link IDs of a minimum-cost path from one node to
// another and its cost. Among parallel links the cheapest one (lowest ID on
// ties) is used. ok is false when no path exists.
func (np *NetPlan) ShortestPath(from, to int64, weight WeightFunc) (links []int64, cost float64, ok bool, err error) {
	if np.nodes[from] == nil || np.nodes[to] == nil {
		return nil, 0, false, fmt.Errorf("shortest path %d->%d: unknown node", from, to)
	}
	if from == to {
		return nil, 0, true, nil
	}

	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for _, n := range np.Nodes() {
		g.AddNode(simple.Node(n.ID))
	}
	best := make(map[[2]int64]*Link)
	costs := make(map[int64]float64)
	for _, l := range np.Links() {
		c, use := weight(l)
		if !use {
			continue
		}
		if c < 0 || math.IsNaN(c) {
			return nil, 0, false, fmt.Errorf("link %d: invalid cost %g", l.ID, c)
		}
		costs[l.ID] = c
		key := [2]int64{l.From, l.To}
		if cur, seen := best[key]; !seen || c < costs[cur.ID] {
			best[key] = l
		}
	}
	for _, l := range np.Links() {
		if best[[2]int64{l.From, l.To}] != l {
			continue
		}
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(l.From), T: simple.Node(l.To), W: costs[l.ID]})
	}

	tree := path.DijkstraFrom(simple.Node(from), g)
	nodes, total := tree.To(to)
	if len(nodes) == 0 || math.IsInf(total, 1) {
		return nil, 0, false, nil
	}
	return np.linksAlong(nodes, best), total, true, nil
}

func (np *NetPlan) linksAlong(nodes []graph.Node, best map[[2]int64]*Link) []int64 {
	out := make([]int64, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		out = append(out, best[[2]int64{nodes[i-1].ID(), nodes[i].ID()}].ID)
	}
	return out
}
