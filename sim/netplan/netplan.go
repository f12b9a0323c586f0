// Package netplan holds the network state mutated by the bundled simulation
// components: nodes, unidirectional links, traffic demands and the routes
// carrying them.
package netplan

import (
	"fmt"
	"maps"
	"slices"

	"github.com/netplan-sim/netsim/sim"
)

// Node is a network node.
type Node struct {
	ID   int64
	Name string
}

// Link is a unidirectional link between two nodes.
type Link struct {
	ID       int64
	From     int64
	To       int64
	Capacity float64
	LengthKm float64
	Up       bool
}

// Demand is offered traffic between two nodes.
type Demand struct {
	ID             int64
	From           int64
	To             int64
	OfferedTraffic float64
}

// Route carries traffic of a demand along a sequence of links.
type Route struct {
	ID             int64
	DemandID       int64
	Links          []int64
	CarriedTraffic float64
}

// NetPlan is a network design: topology, demands and routes.
// Not safe for concurrent use.
type NetPlan struct {
	nodes   map[int64]*Node
	links   map[int64]*Link
	demands map[int64]*Demand
	routes  map[int64]*Route

	occupied    map[int64]float64 // link ID -> traffic carried by routes
	nextRouteID int64
}

// New returns an empty NetPlan.
func New() *NetPlan {
	return &NetPlan{
		nodes:    make(map[int64]*Node),
		links:    make(map[int64]*Link),
		demands:  make(map[int64]*Demand),
		routes:   make(map[int64]*Route),
		occupied: make(map[int64]float64),
	}
}

// AddNode adds a node with a unique ID.
func (np *NetPlan) AddNode(id int64, name string) error {
	if _, dup := np.nodes[id]; dup {
		return fmt.Errorf("node %d already exists", id)
	}
	np.nodes[id] = &Node{ID: id, Name: name}
	return nil
}

// AddLink adds a link between existing nodes.
func (np *NetPlan) AddLink(l Link) error {
	if _, dup := np.links[l.ID]; dup {
		return fmt.Errorf("link %d already exists", l.ID)
	}
	if err := np.checkEndpoints("link", l.ID, l.From, l.To); err != nil {
		return err
	}
	if l.Capacity < 0 {
		return fmt.Errorf("link %d: negative capacity %g", l.ID, l.Capacity)
	}
	if l.LengthKm < 0 {
		return fmt.Errorf("link %d: negative length %g", l.ID, l.LengthKm)
	}
	np.links[l.ID] = &l
	return nil
}

// AddDemand adds a demand between existing nodes.
func (np *NetPlan) AddDemand(d Demand) error {
	if _, dup := np.demands[d.ID]; dup {
		return fmt.Errorf("demand %d already exists", d.ID)
	}
	if err := np.checkEndpoints("demand", d.ID, d.From, d.To); err != nil {
		return err
	}
	if d.OfferedTraffic < 0 {
		return fmt.Errorf("demand %d: negative offered traffic %g", d.ID, d.OfferedTraffic)
	}
	np.demands[d.ID] = &d
	return nil
}

func (np *NetPlan) checkEndpoints(what string, id, from, to int64) error {
	if _, ok := np.nodes[from]; !ok {
		return fmt.Errorf("%s %d: unknown origin node %d", what, id, from)
	}
	if _, ok := np.nodes[to]; !ok {
		return fmt.Errorf("%s %d: unknown destination node %d", what, id, to)
	}
	if from == to {
		return fmt.Errorf("%s %d: origin and destination are both node %d", what, id, from)
	}
	return nil
}

// AddRoute adds a route for a demand. The links must form a contiguous path
// from the demand origin to its destination. Capacity is not checked here.
func (np *NetPlan) AddRoute(demandID int64, links []int64, carried float64) (int64, error) {
	d, ok := np.demands[demandID]
	if !ok {
		return 0, fmt.Errorf("unknown demand %d", demandID)
	}
	if carried < 0 {
		return 0, fmt.Errorf("negative carried traffic %g", carried)
	}
	if len(links) == 0 {
		return 0, fmt.Errorf("demand %d: empty route", demandID)
	}
	at := d.From
	for _, id := range links {
		l, ok := np.links[id]
		if !ok {
			return 0, fmt.Errorf("demand %d: unknown link %d", demandID, id)
		}
		if l.From != at {
			return 0, fmt.Errorf("demand %d: link %d does not start at node %d", demandID, id, at)
		}
		at = l.To
	}
	if at != d.To {
		return 0, fmt.Errorf("demand %d: route ends at node %d, want %d", demandID, at, d.To)
	}

	id := np.nextRouteID
	np.nextRouteID++
	np.routes[id] = &Route{ID: id, DemandID: demandID, Links: slices.Clone(links), CarriedTraffic: carried}
	for _, l := range links {
		np.occupied[l] += carried
	}
	return id, nil
}

// RemoveRoute deletes a route and releases its capacity.
func (np *NetPlan) RemoveRoute(id int64) error {
	r, ok := np.routes[id]
	if !ok {
		return fmt.Errorf("unknown route %d", id)
	}
	for _, l := range r.Links {
		np.occupied[l] -= r.CarriedTraffic
		if np.occupied[l] <= 0 {
			delete(np.occupied, l)
		}
	}
	delete(np.routes, id)
	return nil
}

// SetLinkUp changes the operational state of a link.
func (np *NetPlan) SetLinkUp(id int64, up bool) error {
	l, ok := np.links[id]
	if !ok {
		return fmt.Errorf("unknown link %d", id)
	}
	l.Up = up
	return nil
}

// Node returns the node with the given ID, or nil.
func (np *NetPlan) Node(id int64) *Node { return np.nodes[id] }

// Link returns the link with the given ID, or nil.
func (np *NetPlan) Link(id int64) *Link { return np.links[id] }

// Demand returns the demand with the given ID, or nil.
func (np *NetPlan) Demand(id int64) *Demand { return np.demands[id] }

// Route returns the route with the given ID, or nil.
func (np *NetPlan) Route(id int64) *Route { return np.routes[id] }

// Nodes returns the nodes sorted by ID.
func (np *NetPlan) Nodes() []*Node { return sortedValues(np.nodes) }

// Links returns the links sorted by ID.
func (np *NetPlan) Links() []*Link { return sortedValues(np.links) }

// Demands returns the demands sorted by ID.
func (np *NetPlan) Demands() []*Demand { return sortedValues(np.demands) }

// Routes returns the routes sorted by ID.
func (np *NetPlan) Routes() []*Route { return sortedValues(np.routes) }

func sortedValues[T any](m map[int64]*T) []*T {
	out := make([]*T, 0, len(m))
	for _, id := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[id])
	}
	return out
}

// OccupiedCapacity is the traffic carried over a link by all routes.
func (np *NetPlan) OccupiedCapacity(linkID int64) float64 {
	return np.occupied[linkID]
}

// ResidualCapacity is the link capacity not yet occupied by routes.
func (np *NetPlan) ResidualCapacity(linkID int64) float64 {
	l, ok := np.links[linkID]
	if !ok {
		return 0
	}
	return l.Capacity - np.occupied[linkID]
}

// Utilization is occupied over total capacity; 0 for zero-capacity links.
func (np *NetPlan) Utilization(linkID int64) float64 {
	l, ok := np.links[linkID]
	if !ok || l.Capacity == 0 {
		return 0
	}
	return np.occupied[linkID] / l.Capacity
}

// RoutesTraversing returns the IDs of routes using a link, sorted.
func (np *NetPlan) RoutesTraversing(linkID int64) []int64 {
	var out []int64
	for id, r := range np.routes {
		if slices.Contains(r.Links, linkID) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// CarriedTraffic sums the traffic of all routes of a demand.
func (np *NetPlan) CarriedTraffic(demandID int64) float64 {
	total := 0.0
	for _, r := range np.routes {
		if r.DemandID == demandID {
			total += r.CarriedTraffic
		}
	}
	return total
}

// Copy returns a deep copy.
func (np *NetPlan) Copy() *NetPlan {
	out := New()
	for id, n := range np.nodes {
		c := *n
		out.nodes[id] = &c
	}
	for id, l := range np.links {
		c := *l
		out.links[id] = &c
	}
	for id, d := range np.demands {
		c := *d
		out.demands[id] = &c
	}
	for id, r := range np.routes {
		c := *r
		c.Links = slices.Clone(r.Links)
		out.routes[id] = &c
	}
	maps.Copy(out.occupied, np.occupied)
	out.nextRouteID = np.nextRouteID
	return out
}

// Clone implements sim.NetworkState.
func (np *NetPlan) Clone() sim.NetworkState {
	return np.Copy()
}

// FromState extracts a *NetPlan from a network state handed over by the kernel.
func FromState(state sim.NetworkState) (*NetPlan, error) {
	np, ok := state.(*NetPlan)
	if !ok || np == nil {
		return nil, fmt.Errorf("network state is %T, want *netplan.NetPlan", state)
	}
	return np, nil
}
