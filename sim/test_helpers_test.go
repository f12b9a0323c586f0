package sim

import (
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeState is a NetworkState counting the events applied to it.
type fakeState struct {
	applied int
}

func (s *fakeState) Clone() NetworkState {
	c := *s
	return &c
}

// fakeComponent is a scriptable generator or processor. Unset hooks do nothing.
type fakeComponent struct {
	name   string
	params []ParamDef

	onInit       func(state NetworkState, params Params) error
	onEvent      func(ev *SimEvent, s Scheduler) error
	onTransitory func(now float64) error
	onFinish     func(w io.Writer, now float64) error
	validate     func(Params) error

	mu              sync.Mutex
	events          []*SimEvent
	times           []float64
	initCalls       int
	transitoryCalls int
	transitoryAt    float64
	finishCalls     int
}

func (c *fakeComponent) Description() string    { return c.name }
func (c *fakeComponent) Parameters() []ParamDef { return c.params }

func (c *fakeComponent) ValidateParams(p Params) error {
	if c.validate == nil {
		return nil
	}
	return c.validate(p)
}

func (c *fakeComponent) Initialize(state NetworkState, params, _, _ Params) error {
	c.mu.Lock()
	c.initCalls++
	c.mu.Unlock()
	if c.onInit != nil {
		return c.onInit(state, params)
	}
	return nil
}

func (c *fakeComponent) ProcessEvent(ev *SimEvent, s Scheduler) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.times = append(c.times, s.Now())
	c.mu.Unlock()
	if c.onEvent != nil {
		return c.onEvent(ev, s)
	}
	return nil
}

func (c *fakeComponent) FinishTransitory(now float64) error {
	c.mu.Lock()
	c.transitoryCalls++
	c.transitoryAt = now
	c.mu.Unlock()
	if c.onTransitory != nil {
		return c.onTransitory(now)
	}
	return nil
}

func (c *fakeComponent) Finish(w io.Writer, now float64) error {
	c.mu.Lock()
	c.finishCalls++
	c.mu.Unlock()
	if c.onFinish != nil {
		return c.onFinish(w, now)
	}
	_, err := fmt.Fprintf(w, "%s finished at %g\n", c.name, now)
	return err
}

// processed returns the non-bootstrap events received so far.
func (c *fakeComponent) processed() []*SimEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*SimEvent, 0, len(c.events))
	for _, ev := range c.events {
		if ev.Kind != KindBootstrap {
			out = append(out, ev)
		}
	}
	return out
}

// periodicGenerator schedules n processor events, one per time unit starting at 1.
func periodicGenerator(n int) *fakeComponent {
	return &fakeComponent{
		name: "periodic",
		onEvent: func(ev *SimEvent, s Scheduler) error {
			if ev.Kind != KindBootstrap {
				return nil
			}
			for i := 1; i <= n; i++ {
				if err := s.ScheduleAt(float64(i), ToProcessor, "tick", i); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// selfRenewingGenerator keeps scheduling one event to itself every time unit.
func selfRenewingGenerator() *fakeComponent {
	return &fakeComponent{
		name: "renewing",
		onEvent: func(ev *SimEvent, s Scheduler) error {
			return s.ScheduleAt(s.Now()+1, ToGenerator, "renew", nil)
		},
	}
}

// recordingListener collects notifications. Safe for concurrent use.
type recordingListener struct {
	mu       sync.Mutex
	states   []SimState
	reasons  []error
	forced   int
	hints    int
	onChange func(SimState)
	order    []string
}

func (l *recordingListener) Refresh(force bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if force {
		l.forced++
		l.order = append(l.order, "refresh")
		return
	}
	l.hints++
}

func (l *recordingListener) SimulationStateChanged(state SimState, reason error) {
	l.mu.Lock()
	l.states = append(l.states, state)
	l.reasons = append(l.reasons, reason)
	l.order = append(l.order, state.String())
	cb := l.onChange
	l.mu.Unlock()
	if cb != nil {
		cb(state)
	}
}

func (l *recordingListener) snapshot() ([]SimState, []error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SimState(nil), l.states...), append([]error(nil), l.reasons...)
}

// configuredKernel returns a kernel ready to run with the given components.
func configuredKernel(t *testing.T, l Listener, simParams Params, gen, proc *fakeComponent) *SimKernel {
	t.Helper()
	var opts []KernelOption
	if l != nil {
		opts = append(opts, WithListener(l))
	}
	k := NewKernel(opts...)
	require.NoError(t, k.SetNetPlan(&fakeState{}))
	require.NoError(t, k.ConfigureSimulation(simParams, nil, gen, nil, proc, nil))
	require.NoError(t, k.Initialize())
	return k
}

// waitDone fails the test if the run does not stop within a few seconds.
func waitDone(t *testing.T, c *SimCore) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}

