package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/netplan-sim/netsim/sim/trace"
)

// coreConfig is everything SimCore needs; built by SimKernel.ConfigureSimulation.
type coreConfig struct {
	params    SimParams
	generator EventGenerator
	processor EventProcessor
	listener  Listener
	trace     *trace.SimulationTrace
	log       *logrus.Entry
	claim     func(*SimCore) error // registers the run with the owning kernel
}

// SimCore is the state machine and drive loop of one run. It is created in
// NotStarted by the kernel and becomes Stopped for good when the run ends.
//
// Everything touched by the drive loop (event list, components, network
// state) is owned by the goroutine that calls Run. State, Stats, Reason and
// SetSimulationState may be called from any goroutine.
type SimCore struct {
	params    SimParams
	generator EventGenerator
	processor EventProcessor
	listener  Listener
	trace     *trace.SimulationTrace
	log       *logrus.Entry
	claim     func(*SimCore) error

	queue  *EventQueue
	rng    *PartitionedRNG
	report bytes.Buffer

	// drive-loop signals, set through Scheduler during a component call
	endSignal     *EndOfSimulation
	endTransitory bool
	inTransitory  bool

	wallRefresh    *rate.Sometimes
	nextRefreshSim float64
	refreshHints   chan struct{}

	mu             sync.Mutex
	cond           *sync.Cond
	state          SimState
	claimed        bool
	stopRequested  bool
	pauseRequested bool
	reason         error
	stats          Stats
	done           chan struct{}
}

func newSimCore(cfg coreConfig) *SimCore {
	c := &SimCore{
		params:       cfg.params,
		generator:    cfg.generator,
		processor:    cfg.processor,
		listener:     cfg.listener,
		trace:        cfg.trace,
		log:          cfg.log,
		claim:        cfg.claim,
		queue:        NewEventQueue(),
		rng:          NewPartitionedRNG(cfg.params.RandomSeed),
		refreshHints: make(chan struct{}, 1),
		state:        NotStarted,
		done:         make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if c.params.RefreshTime != Unbounded {
		c.wallRefresh = &rate.Sometimes{Interval: time.Duration(c.params.RefreshTime * float64(time.Second))}
	}
	if c.params.RefreshSimTime != Unbounded {
		c.nextRefreshSim = c.params.RefreshSimTime
	}
	c.inTransitory = c.params.HasTransitory()
	if !c.inTransitory {
		c.stats.TransitoryFinished = true
	}
	return c
}

// State returns the current state.
func (c *SimCore) State() SimState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reason returns the stop reason once Stopped: nil for a normal completion,
// *EndOfSimulation, or the failure.
func (c *SimCore) Reason() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Stats returns a snapshot of the run counters.
func (c *SimCore) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.State = c.state
	return s
}

// Done is closed once the run has stopped and listeners were notified.
func (c *SimCore) Done() <-chan struct{} {
	return c.done
}

// Params returns the parsed simulation parameters of this run.
func (c *SimCore) Params() SimParams {
	return c.params
}

// Report returns what the components wrote from Finish. Only meaningful once Stopped.
func (c *SimCore) Report() string {
	if c.State() != Stopped {
		return ""
	}
	return c.report.String()
}

// SetSimulationState requests a state change from outside the drive loop.
// Stopped and Paused take effect at the next iteration boundary; a component
// call in progress is never interrupted. Running resumes a paused run.
// Stopping a core that has not started yet makes its run stop right after
// the bootstrap event. Starting a run goes through Run.
func (c *SimCore) SetSimulationState(target SimState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch target {
	case Stopped:
		switch {
		case c.state == Stopped:
			return nil
		case c.state == NotStarted || c.state.active():
			c.stopRequested = true
			c.cond.Broadcast()
			return nil
		}
	case Paused:
		switch c.state {
		case Paused:
			return nil
		case Running:
			c.pauseRequested = true
			return nil
		}
	case Running:
		switch c.state {
		case Running:
			c.pauseRequested = false
			return nil
		case Paused:
			c.pauseRequested = false
			c.cond.Broadcast()
			return nil
		}
	}
	return &IllegalStateError{Op: fmt.Sprintf("transition to %s", target), State: c.state}
}

// Run executes the drive loop on the calling goroutine until the run stops.
// It returns IllegalStateError unless the core is NotStarted, the failure if
// a component failed, and nil for every graceful stop. Calling it directly is
// equivalent to SimKernel.Run: the kernel must be initialized and must not
// have started another run.
func (c *SimCore) Run(ctx context.Context) error {
	if err := c.ensureClaimed(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.state != NotStarted {
		st := c.state
		c.mu.Unlock()
		return &IllegalStateError{Op: "run", State: st}
	}
	c.state = Running
	c.stats.StartedAt = time.Now()
	c.mu.Unlock()

	wake := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer wake()

	stopForwarding := c.forwardRefreshHints()
	c.notify(Running, nil)
	c.log.WithField("params", fmt.Sprintf("%+v", c.params)).Info("simulation started")

	cause, reason := c.loop(ctx)
	cause, reason = c.finish(cause, reason)

	stopForwarding()
	c.mu.Lock()
	c.state = Stopped
	c.reason = reason
	c.stats.Cause = cause
	c.stats.StoppedAt = time.Now()
	c.stats.PendingEvents = c.queue.Len()
	stats := c.stats
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"cause":    cause.String(),
		"events":   stats.Events,
		"sim_time": stats.SimTime,
		"wall":     stats.WallElapsed().String(),
	}).Info("simulation stopped")
	c.notify(Stopped, reason)
	close(c.done)

	if cause == CauseFailure {
		return reason
	}
	return nil
}

// ensureClaimed registers a direct Run with the owning kernel.
func (c *SimCore) ensureClaimed() error {
	c.mu.Lock()
	claimed, st := c.claimed, c.state
	c.mu.Unlock()
	if claimed {
		return nil
	}
	if c.claim == nil {
		return &IllegalStateError{Op: "run without a kernel", State: st}
	}
	return c.claim(c)
}

// markClaimed records that the kernel handed this core to a runner.
func (c *SimCore) markClaimed() {
	c.mu.Lock()
	c.claimed = true
	c.mu.Unlock()
}

// loop is the drive loop. It returns why it stopped and the listener reason.
func (c *SimCore) loop(ctx context.Context) (StopCause, error) {
	bootstrap := NewEvent(0, ToGenerator, KindBootstrap, nil)
	if err := c.dispatch(bootstrap); err != nil {
		return CauseFailure, err
	}
	if c.endSignal != nil {
		return CauseEndRequested, c.endSignal
	}
	if err := c.afterDispatch(); err != nil {
		return CauseFailure, err
	}

	for {
		if cause, stop := c.waitControl(ctx); stop {
			return cause, nil
		}
		if c.queue.IsEmpty() {
			return CauseExhausted, nil
		}
		if c.params.SimEvents != Unbounded && c.eventCount() >= c.params.SimEvents {
			return CauseEventLimit, nil
		}
		if c.params.SimTime != Unbounded && c.queue.Peek().Time > c.params.SimTime {
			return CauseTimeLimit, nil
		}

		ev, err := c.queue.Next()
		if err != nil {
			return CauseFailure, err
		}
		if c.inTransitory && c.params.TransitoryTime != Unbounded && ev.Time > c.params.TransitoryTime {
			if err := c.finishTransitory(ev.Time); err != nil {
				return CauseFailure, err
			}
		}

		err = c.dispatch(ev)
		c.countDispatch(ev)
		if err != nil {
			return CauseFailure, err
		}
		if c.endSignal != nil {
			return CauseEndRequested, c.endSignal
		}
		if err := c.afterDispatch(); err != nil {
			return CauseFailure, err
		}
	}
}

// waitControl observes external stop, pause and cancellation requests.
func (c *SimCore) waitControl(ctx context.Context) (StopCause, bool) {
	c.mu.Lock()
	for c.pauseRequested && !c.stopRequested && ctx.Err() == nil {
		if c.state != Paused {
			c.state = Paused
			c.mu.Unlock()
			c.log.Info("simulation paused")
			c.notify(Paused, nil)
			c.mu.Lock()
			continue
		}
		c.cond.Wait()
	}
	resumed := c.state == Paused
	if resumed {
		c.state = Running
	}
	stop := c.stopRequested || ctx.Err() != nil
	c.mu.Unlock()

	if resumed && !stop {
		c.log.Info("simulation resumed")
		c.notify(Running, nil)
	}
	if stop {
		return CauseExternalStop, true
	}
	return CauseNone, false
}

// dispatch hands ev to its component and converts errors and panics.
func (c *SimCore) dispatch(ev *SimEvent) error {
	role, comp := c.component(ev.Dest)
	c.log.Tracef("[t=%g] dispatching %s to %s", ev.Time, ev.Kind, role)
	err := c.call(role, "processEvent", func() error {
		return comp.ProcessEvent(ev, &coreScheduler{core: c, role: role})
	})
	if err == nil || !errors.Is(err, ErrEndSimulation) {
		return err
	}
	// a component returning ErrEndSimulation ends the run gracefully
	var failure *ComponentFailure
	if errors.As(err, &failure) && c.endSignal == nil {
		c.endSignal = &EndOfSimulation{Role: role, Time: c.queue.Now(), Cause: failure.Err}
	}
	return nil
}

// afterDispatch ends the transitory period when its event bound is reached
// or a component asked for it, and emits refresh hints.
func (c *SimCore) afterDispatch() error {
	if c.inTransitory {
		reached := c.params.TransitoryEvents != Unbounded && c.eventCount() >= c.params.TransitoryEvents
		if reached || c.endTransitory {
			if err := c.finishTransitory(c.queue.Now()); err != nil {
				return err
			}
		}
	}
	c.endTransitory = false
	c.maybeRefresh()
	return nil
}

// finishTransitory calls FinishTransitory on both components, once per run.
func (c *SimCore) finishTransitory(now float64) error {
	if !c.inTransitory {
		return nil
	}
	c.inTransitory = false
	c.mu.Lock()
	c.stats.TransitoryFinished = true
	c.stats.TransitoryEndTime = now
	c.stats.TransitoryEvents = c.stats.Events
	c.mu.Unlock()
	c.log.WithField("sim_time", now).Info("transitory period finished")

	if err := c.call("generator", "finishTransitory", func() error { return c.generator.FinishTransitory(now) }); err != nil {
		return err
	}
	return c.call("processor", "finishTransitory", func() error { return c.processor.FinishTransitory(now) })
}

// finish calls Finish on both components. A finish error only replaces the
// stop reason when the run was otherwise graceful.
func (c *SimCore) finish(cause StopCause, reason error) (StopCause, error) {
	now := c.queue.Now()
	for _, role := range []string{"generator", "processor"} {
		_, comp := c.component(roleDestination(role))
		err := c.call(role, "finish", func() error { return comp.Finish(&c.report, now) })
		if err == nil {
			continue
		}
		if cause == CauseFailure {
			c.log.WithError(err).Warn("finish failed after an earlier failure")
			continue
		}
		cause, reason = CauseFailure, err
	}
	return cause, reason
}

// call runs fn, wrapping a returned error or a recovered panic in ComponentFailure.
func (c *SimCore) call(role, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithFields(logrus.Fields{"role": role, "op": op}).Errorf("component panic: %v\n%s", r, debug.Stack())
			err = &ComponentFailure{Role: role, Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if ferr := fn(); ferr != nil {
		return &ComponentFailure{Role: role, Op: op, Err: ferr}
	}
	return nil
}

func (c *SimCore) component(d Destination) (string, Component) {
	if d == ToGenerator {
		return "generator", c.generator
	}
	return "processor", c.processor
}

func roleDestination(role string) Destination {
	if role == "generator" {
		return ToGenerator
	}
	return ToProcessor
}

func (c *SimCore) eventCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.Events
}

func (c *SimCore) countDispatch(ev *SimEvent) {
	c.mu.Lock()
	c.stats.Events++
	if ev.Dest == ToGenerator {
		c.stats.GeneratorEvents++
	} else {
		c.stats.ProcessorEvents++
	}
	c.stats.SimTime = ev.Time
	c.mu.Unlock()
	if c.trace != nil {
		c.trace.RecordDispatch(trace.DispatchRecord{
			Seq:         ev.Seq(),
			Time:        ev.Time,
			Destination: ev.Dest.String(),
			Kind:        ev.Kind,
		})
	}
}

// maybeRefresh emits a non-forcing refresh hint on the configured cadences.
// Hints are coalesced into a one-slot channel; dispatch never waits on them.
func (c *SimCore) maybeRefresh() {
	hint := false
	if c.wallRefresh != nil {
		c.wallRefresh.Do(func() { hint = true })
	}
	if c.params.RefreshSimTime != Unbounded && c.queue.Now() >= c.nextRefreshSim {
		hint = true
		for c.nextRefreshSim <= c.queue.Now() {
			c.nextRefreshSim += c.params.RefreshSimTime
		}
	}
	if !hint {
		return
	}
	select {
	case c.refreshHints <- struct{}{}:
	default:
	}
}

// forwardRefreshHints delivers refresh hints to the listener from a separate
// goroutine. The returned function stops it and waits for it to exit, so no
// hint is delivered after the final state change.
func (c *SimCore) forwardRefreshHints() func() {
	quit := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case <-quit:
				return
			case <-c.refreshHints:
				if c.listener != nil {
					c.listener.Refresh(false)
				}
			}
		}
	}()
	return func() {
		close(quit)
		<-exited
	}
}

// notify delivers the forced refresh and the state change, in that order.
func (c *SimCore) notify(state SimState, reason error) {
	if c.trace != nil {
		rec := trace.StateRecord{State: state.String(), Time: c.queue.Now()}
		if reason != nil {
			rec.Reason = reason.Error()
		}
		c.trace.RecordTransition(rec)
	}
	if c.listener == nil {
		return
	}
	c.listener.Refresh(true)
	c.listener.SimulationStateChanged(state, reason)
}

// coreScheduler is the Scheduler handed to a component for one call.
type coreScheduler struct {
	core *SimCore
	role string
}

func (s *coreScheduler) Now() float64 { return s.core.queue.Now() }

func (s *coreScheduler) Schedule(ev *SimEvent) error {
	return s.core.queue.Schedule(ev)
}

func (s *coreScheduler) ScheduleAt(time float64, dest Destination, kind string, payload any) error {
	return s.core.queue.Schedule(NewEvent(time, dest, kind, payload))
}

func (s *coreScheduler) EndSimulation() {
	if s.core.endSignal == nil {
		s.core.endSignal = &EndOfSimulation{Role: s.role, Time: s.core.queue.Now()}
	}
}

func (s *coreScheduler) EndTransitory() { s.core.endTransitory = true }

func (s *coreScheduler) InTransitory() bool { return s.core.inTransitory }

func (s *coreScheduler) StatisticsEnabled() bool { return !s.core.params.DisableStatistics }

func (s *coreScheduler) Rand(subsystem string) *rand.Rand {
	return s.core.rng.ForSubsystem(subsystem)
}
