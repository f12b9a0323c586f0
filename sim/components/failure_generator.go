package components

import (
	"fmt"
	"io"

	"github.com/netplan-sim/netsim/sim"
	"github.com/netplan-sim/netsim/sim/netplan"
)

const subsystemFailures = "failures"

// FailureGenerator alternates every link between up and down periods drawn
// from exponential distributions with means mttf and mttr. Links that start
// down are first repaired.
type FailureGenerator struct {
	mttf float64
	mttr float64

	links []int64
	up    map[int64]bool

	failures        int64
	failuresInStats int64
	repairs         int64
}

// NewFailureGenerator returns an uninitialized generator.
func NewFailureGenerator() *FailureGenerator {
	return &FailureGenerator{}
}

func (g *FailureGenerator) Description() string {
	return "Exponential link failures and repairs"
}

func (g *FailureGenerator) Parameters() []sim.ParamDef {
	return []sim.ParamDef{
		{Name: "mttf", Default: "100", Description: "Mean time to failure of a link"},
		{Name: "mttr", Default: "1", Description: "Mean time to repair of a link"},
	}
}

func (g *FailureGenerator) ValidateParams(p sim.Params) error {
	for _, name := range []string{"mttf", "mttr"} {
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

func (g *FailureGenerator) Initialize(state sim.NetworkState, params, _, _ sim.Params) error {
	np, err := netplan.FromState(state)
	if err != nil {
		return err
	}
	if g.mttf, err = params.Float("mttf"); err != nil {
		return err
	}
	if g.mttr, err = params.Float("mttr"); err != nil {
		return err
	}
	g.links = g.links[:0]
	g.up = make(map[int64]bool)
	for _, l := range np.Links() {
		g.links = append(g.links, l.ID)
		g.up[l.ID] = l.Up
	}
	g.failures, g.failuresInStats, g.repairs = 0, 0, 0
	return nil
}

func (g *FailureGenerator) ProcessEvent(ev *sim.SimEvent, s sim.Scheduler) error {
	rng := s.Rand(subsystemFailures)
	switch ev.Kind {
	case sim.KindBootstrap:
		for _, id := range g.links {
			kind, mean := kindLinkFail, g.mttf
			if !g.up[id] {
				kind, mean = kindLinkRepair, g.mttr
			}
			if err := s.ScheduleAt(s.Now()+rng.ExpFloat64()*mean, sim.ToGenerator, kind, id); err != nil {
				return err
			}
		}
		return nil

	case kindLinkFail, kindLinkRepair:
		id, ok := ev.Payload.(int64)
		if !ok {
			return fmt.Errorf("%s: payload is %T, want int64", ev.Kind, ev.Payload)
		}
		if _, known := g.up[id]; !known {
			return fmt.Errorf("%s: unknown link %d", ev.Kind, id)
		}
		now := s.Now()
		if ev.Kind == kindLinkFail {
			g.up[id] = false
			g.failures++
			if s.StatisticsEnabled() {
				g.failuresInStats++
			}
			if err := s.ScheduleAt(now, sim.ToProcessor, KindLinkDown, &LinkEvent{LinkID: id}); err != nil {
				return err
			}
			return s.ScheduleAt(now+rng.ExpFloat64()*g.mttr, sim.ToGenerator, kindLinkRepair, id)
		}
		g.up[id] = true
		g.repairs++
		if err := s.ScheduleAt(now, sim.ToProcessor, KindLinkUp, &LinkEvent{LinkID: id}); err != nil {
			return err
		}
		return s.ScheduleAt(now+rng.ExpFloat64()*g.mttf, sim.ToGenerator, kindLinkFail, id)

	default:
		return fmt.Errorf("failure generator: unexpected event kind %q", ev.Kind)
	}
}

func (g *FailureGenerator) FinishTransitory(float64) error {
	g.failuresInStats = 0
	return nil
}

func (g *FailureGenerator) Finish(w io.Writer, now float64) error {
	_, err := fmt.Fprintf(w, "%s: %d link failures (%d after transitory), %d repairs up to t=%g\n",
		FailureGeneratorName, g.failures, g.failuresInStats, g.repairs, now)
	if err != nil {
		return fmt.Errorf("writing failure generator report: %w", err)
	}
	return nil
}

// Failures returns the number of link failures produced so far.
func (g *FailureGenerator) Failures() int64 {
	return g.failures
}
