package components

import (
	"fmt"
	"io"

	"github.com/netplan-sim/netsim/sim"
	"github.com/netplan-sim/netsim/sim/netplan"
)

const subsystemArrivals = "arrivals"

// ConnectionGenerator produces Poisson connection arrivals for every demand
// with exponential holding times. The arrival rate of a demand is chosen so
// that the mean offered load equals its offered traffic:
//
//	rate = arrivalRateFactor * offeredTraffic / (connectionBandwidth * meanHoldingTime)
type ConnectionGenerator struct {
	rateFactor  float64
	holdingTime float64
	bandwidth   float64

	rates  map[int64]float64 // demand ID -> arrivals per time unit
	demand []int64           // demand IDs with a positive rate, sorted
	nextID int64

	generated        int64
	generatedInStats int64
}

// NewConnectionGenerator returns an uninitialized generator.
func NewConnectionGenerator() *ConnectionGenerator {
	return &ConnectionGenerator{}
}

func (g *ConnectionGenerator) Description() string {
	return "Poisson connection arrivals per demand with exponential holding times"
}

func (g *ConnectionGenerator) Parameters() []sim.ParamDef {
	return []sim.ParamDef{
		{Name: "arrivalRateFactor", Default: "1", Description: "Scaling factor applied to every demand's arrival rate"},
		{Name: "meanHoldingTime", Default: "1", Description: "Mean connection holding time (simulated time units)"},
		{Name: "connectionBandwidth", Default: "1", Description: "Capacity requested by each connection"},
	}
}

func (g *ConnectionGenerator) ValidateParams(p sim.Params) error {
	for _, name := range []string{"arrivalRateFactor", "meanHoldingTime", "connectionBandwidth"} {
		v, err := p.Float(name)
		if err != nil {
			return err
		}
		if v <= 0 {
			return fmt.Errorf("%s must be > 0, got %g", name, v)
		}
	}
	return nil
}

func (g *ConnectionGenerator) Initialize(state sim.NetworkState, params, _, _ sim.Params) error {
	np, err := netplan.FromState(state)
	if err != nil {
		return err
	}
	if g.rateFactor, err = params.Float("arrivalRateFactor"); err != nil {
		return err
	}
	if g.holdingTime, err = params.Float("meanHoldingTime"); err != nil {
		return err
	}
	if g.bandwidth, err = params.Float("connectionBandwidth"); err != nil {
		return err
	}

	g.rates = make(map[int64]float64)
	g.demand = g.demand[:0]
	for _, d := range np.Demands() {
		rate := g.rateFactor * d.OfferedTraffic / (g.bandwidth * g.holdingTime)
		if rate > 0 {
			g.rates[d.ID] = rate
			g.demand = append(g.demand, d.ID)
		}
	}
	g.nextID, g.generated, g.generatedInStats = 0, 0, 0
	return nil
}

func (g *ConnectionGenerator) ProcessEvent(ev *sim.SimEvent, s sim.Scheduler) error {
	rng := s.Rand(subsystemArrivals)
	switch ev.Kind {
	case sim.KindBootstrap:
		for _, id := range g.demand {
			next := s.Now() + rng.ExpFloat64()/g.rates[id]
			if err := s.ScheduleAt(next, sim.ToGenerator, kindNextArrival, id); err != nil {
				return err
			}
		}
		return nil

	case kindNextArrival:
		demandID, ok := ev.Payload.(int64)
		if !ok {
			return fmt.Errorf("%s: payload is %T, want int64", ev.Kind, ev.Payload)
		}
		rate, ok := g.rates[demandID]
		if !ok {
			return fmt.Errorf("%s: unknown demand %d", ev.Kind, demandID)
		}
		req := &ConnectionRequest{
			ID:          g.nextID,
			DemandID:    demandID,
			Bandwidth:   g.bandwidth,
			HoldingTime: rng.ExpFloat64() * g.holdingTime,
		}
		g.nextID++
		g.generated++
		if s.StatisticsEnabled() {
			g.generatedInStats++
		}
		now := s.Now()
		if err := s.ScheduleAt(now, sim.ToProcessor, KindConnectionRequest, req); err != nil {
			return err
		}
		if err := s.ScheduleAt(now+req.HoldingTime, sim.ToProcessor, KindConnectionRelease, &ConnectionRelease{ID: req.ID}); err != nil {
			return err
		}
		return s.ScheduleAt(now+rng.ExpFloat64()/rate, sim.ToGenerator, kindNextArrival, demandID)

	default:
		return fmt.Errorf("connection generator: unexpected event kind %q", ev.Kind)
	}
}

func (g *ConnectionGenerator) FinishTransitory(float64) error {
	g.generatedInStats = 0
	return nil
}

func (g *ConnectionGenerator) Finish(w io.Writer, now float64) error {
	_, err := fmt.Fprintf(w, "%s: %d connection requests generated (%d after transitory) up to t=%g\n",
		ConnectionGeneratorName, g.generated, g.generatedInStats, now)
	if err != nil {
		return fmt.Errorf("writing connection generator report: %w", err)
	}
	return nil
}

// Generated returns the number of connection requests produced so far.
func (g *ConnectionGenerator) Generated() int64 {
	return g.generated
}
