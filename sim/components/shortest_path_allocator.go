package components

import (
	"fmt"
	"io"

	"github.com/netplan-sim/netsim/sim"
	"github.com/netplan-sim/netsim/sim/netplan"
)

// Routing types accepted by the routingType parameter.
const (
	RoutingHops = "hops"
	RoutingKm   = "km"
)

// AllocatorStats are the counters of a ShortestPathAllocator since the end
// of the transitory period.
type AllocatorStats struct {
	Offered        int64
	Carried        int64
	Blocked        int64
	Dropped        int64
	OfferedTraffic float64
	BlockedTraffic float64
	// PeakUtilization is the largest link utilization seen after an allocation.
	PeakUtilization float64
}

// BlockingProbability is blocked over offered connections; 0 when nothing was offered.
func (s AllocatorStats) BlockingProbability() float64 {
	if s.Offered == 0 {
		return 0
	}
	return float64(s.Blocked) / float64(s.Offered)
}

// ShortestPathAllocator serves connection requests over the shortest path of
// up links with enough residual capacity, and tears down the routes crossing
// a link when it goes down.
type ShortestPathAllocator struct {
	np         *netplan.NetPlan
	weight     netplan.WeightFunc
	precision  float64
	maxBlocked int64

	active       map[int64]int64 // connection ID -> route ID
	byRoute      map[int64]int64 // route ID -> connection ID
	blockedTotal int64

	stats AllocatorStats
}

// NewShortestPathAllocator returns an uninitialized allocator.
func NewShortestPathAllocator() *ShortestPathAllocator {
	return &ShortestPathAllocator{}
}

func (a *ShortestPathAllocator) Description() string {
	return "Allocates each connection on the shortest path with enough residual capacity"
}

func (a *ShortestPathAllocator) Parameters() []sim.ParamDef {
	return []sim.ParamDef{
		{Name: "routingType", Default: RoutingHops, Description: "Path metric: hops or km"},
		{Name: "maxBlockedConnections", Default: "-1", Description: "End the simulation once more connections than this are blocked (-1 = unbounded)"},
	}
}

func (a *ShortestPathAllocator) ValidateParams(p sim.Params) error {
	switch rt := p.Get("routingType"); rt {
	case RoutingHops, RoutingKm:
	default:
		return fmt.Errorf("routingType must be %q or %q, got %q", RoutingHops, RoutingKm, rt)
	}
	n, err := p.Int("maxBlockedConnections")
	if err != nil {
		return err
	}
	if n < 0 && n != sim.Unbounded {
		return fmt.Errorf("maxBlockedConnections must be -1 or >= 0, got %d", n)
	}
	return nil
}

func (a *ShortestPathAllocator) Initialize(state sim.NetworkState, params, _, globalParams sim.Params) error {
	np, err := netplan.FromState(state)
	if err != nil {
		return err
	}
	a.np = np
	if params.Get("routingType") == RoutingKm {
		a.weight = netplan.LengthWeight
	} else {
		a.weight = netplan.HopWeight
	}
	if a.maxBlocked, err = params.Int("maxBlockedConnections"); err != nil {
		return err
	}
	if a.precision, err = globalParams.Float(sim.ParamPrecisionFactor); err != nil {
		return err
	}
	a.active = make(map[int64]int64)
	a.byRoute = make(map[int64]int64)
	a.blockedTotal = 0
	a.stats = AllocatorStats{}
	return nil
}

func (a *ShortestPathAllocator) ProcessEvent(ev *sim.SimEvent, s sim.Scheduler) error {
	switch ev.Kind {
	case KindConnectionRequest:
		req, ok := ev.Payload.(*ConnectionRequest)
		if !ok {
			return fmt.Errorf("%s: payload is %T, want *ConnectionRequest", ev.Kind, ev.Payload)
		}
		return a.allocate(req, s)

	case KindConnectionRelease:
		rel, ok := ev.Payload.(*ConnectionRelease)
		if !ok {
			return fmt.Errorf("%s: payload is %T, want *ConnectionRelease", ev.Kind, ev.Payload)
		}
		return a.release(rel.ID)

	case KindLinkDown, KindLinkUp:
		le, ok := ev.Payload.(*LinkEvent)
		if !ok {
			return fmt.Errorf("%s: payload is %T, want *LinkEvent", ev.Kind, ev.Payload)
		}
		if ev.Kind == KindLinkUp {
			return a.np.SetLinkUp(le.LinkID, true)
		}
		return a.linkDown(le.LinkID, s)

	default:
		return fmt.Errorf("shortest path allocator: unexpected event kind %q", ev.Kind)
	}
}

func (a *ShortestPathAllocator) allocate(req *ConnectionRequest, s sim.Scheduler) error {
	stats := s.StatisticsEnabled()
	if stats {
		a.stats.Offered++
		a.stats.OfferedTraffic += req.Bandwidth
	}
	d := a.np.Demand(req.DemandID)
	if d == nil {
		return fmt.Errorf("connection %d: unknown demand %d", req.ID, req.DemandID)
	}
	fits := func(l *netplan.Link) (float64, bool) {
		w, ok := a.weight(l)
		return w, ok && a.np.ResidualCapacity(l.ID) >= req.Bandwidth-a.precision
	}
	links, _, found, err := a.np.ShortestPath(d.From, d.To, fits)
	if err != nil {
		return err
	}
	if !found {
		a.blockedTotal++
		if stats {
			a.stats.Blocked++
			a.stats.BlockedTraffic += req.Bandwidth
		}
		if a.maxBlocked != sim.Unbounded && a.blockedTotal > a.maxBlocked {
			s.EndSimulation()
		}
		return nil
	}
	routeID, err := a.np.AddRoute(req.DemandID, links, req.Bandwidth)
	if err != nil {
		return err
	}
	a.active[req.ID] = routeID
	a.byRoute[routeID] = req.ID
	if stats {
		a.stats.Carried++
		for _, l := range links {
			a.stats.PeakUtilization = max(a.stats.PeakUtilization, a.np.Utilization(l))
		}
	}
	return nil
}

// release frees the route of a connection. Blocked and dropped connections
// have no route and are ignored.
func (a *ShortestPathAllocator) release(connID int64) error {
	routeID, ok := a.active[connID]
	if !ok {
		return nil
	}
	delete(a.active, connID)
	delete(a.byRoute, routeID)
	return a.np.RemoveRoute(routeID)
}

func (a *ShortestPathAllocator) linkDown(linkID int64, s sim.Scheduler) error {
	if err := a.np.SetLinkUp(linkID, false); err != nil {
		return err
	}
	for _, routeID := range a.np.RoutesTraversing(linkID) {
		if connID, ok := a.byRoute[routeID]; ok {
			delete(a.active, connID)
			delete(a.byRoute, routeID)
			if s.StatisticsEnabled() {
				a.stats.Dropped++
			}
		}
		if err := a.np.RemoveRoute(routeID); err != nil {
			return err
		}
	}
	return nil
}

func (a *ShortestPathAllocator) FinishTransitory(float64) error {
	a.stats = AllocatorStats{}
	return nil
}

func (a *ShortestPathAllocator) Finish(w io.Writer, now float64) error {
	st := a.stats
	_, err := fmt.Fprintf(w,
		"%s: offered=%d carried=%d blocked=%d dropped=%d blocking=%.6f traffic_blocking=%.6f peak_utilization=%.4f active=%d t=%g\n",
		ShortestPathAllocatorName, st.Offered, st.Carried, st.Blocked, st.Dropped, st.BlockingProbability(),
		trafficBlocking(st), st.PeakUtilization, len(a.active), now)
	if err != nil {
		return fmt.Errorf("writing allocator report: %w", err)
	}
	return nil
}

func trafficBlocking(st AllocatorStats) float64 {
	if st.OfferedTraffic == 0 {
		return 0
	}
	return st.BlockedTraffic / st.OfferedTraffic
}

// Stats returns the counters gathered since the end of the transitory period.
func (a *ShortestPathAllocator) Stats() AllocatorStats {
	return a.stats
}

// Active returns the number of connections currently holding a route.
func (a *ShortestPathAllocator) Active() int {
	return len(a.active)
}
