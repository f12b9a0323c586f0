package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/netplan-sim/netsim/sim/trace"
)

// SimKernel is the lifecycle façade of the simulator. It owns the network
// state, the generator/processor pair, the parameter maps and the SimCore of
// the configured run.
//
// The usual sequence is SetNetPlan, ConfigureSimulation, Initialize, then Run
// (on a goroutine chosen by the caller) or Start. Reset returns the kernel to
// an unconfigured baseline from any state.
type SimKernel struct {
	mu       sync.Mutex
	listener Listener
	traceCfg trace.TraceConfig
	log      *logrus.Entry

	netPlan     NetworkState
	initialPlan NetworkState

	generator       EventGenerator
	processor       EventProcessor
	simParams       Params
	globalParams    Params
	generatorParams Params
	processorParams Params

	core        *SimCore
	trace       *trace.SimulationTrace
	runID       uuid.UUID
	initialized bool
	started     bool
}

// KernelOption configures a SimKernel.
type KernelOption func(*SimKernel)

// WithListener sets the observer notified of state changes and refreshes.
func WithListener(l Listener) KernelOption {
	return func(k *SimKernel) { k.listener = l }
}

// WithTrace records a dispatch trace for every configured run.
func WithTrace(cfg trace.TraceConfig) KernelOption {
	return func(k *SimKernel) { k.traceCfg = cfg }
}

// WithLogger sets the base log entry; run-scoped fields are added to it.
func WithLogger(e *logrus.Entry) KernelOption {
	return func(k *SimKernel) { k.log = e }
}

// NewKernel creates an unconfigured kernel.
func NewKernel(opts ...KernelOption) *SimKernel {
	k := &SimKernel{}
	for _, opt := range opts {
		opt(k)
	}
	if k.log == nil {
		k.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return k
}

// Reset discards the network state, components, parameters and core. A run
// in progress is asked to stop and Reset waits for it to finish, so Reset
// must not be called from a listener callback. Calling Reset repeatedly is a no-op.
func (k *SimKernel) Reset() {
	k.mu.Lock()
	core, started := k.core, k.started
	k.mu.Unlock()

	if core != nil && runInProgress(core.State(), started) {
		_ = core.SetSimulationState(Stopped)
		<-core.Done()
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.netPlan, k.initialPlan = nil, nil
	k.generator, k.processor = nil, nil
	k.simParams, k.globalParams, k.generatorParams, k.processorParams = nil, nil, nil, nil
	k.core, k.trace = nil, nil
	k.runID = uuid.Nil
	k.initialized, k.started = false, false
}

// SetNetPlan installs the network state mutated during the simulation and
// keeps a copy of it as the initial state. Any previous configuration is dropped.
func (k *SimKernel) SetNetPlan(state NetworkState) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkIdleLocked("set network state"); err != nil {
		return err
	}
	if state == nil {
		return configError("kernel", "", errors.New("network state is nil"))
	}
	k.netPlan = state
	k.initialPlan = state.Clone()
	k.core, k.trace = nil, nil
	k.initialized, k.started = false, false
	return nil
}

// ConfigureSimulation validates every parameter map against its schema and
// builds a new SimCore in NotStarted bound to the simulation limits.
func (k *SimKernel) ConfigureSimulation(simParams, globalParams Params, generator EventGenerator,
	generatorParams Params, processor EventProcessor, processorParams Params) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.checkIdleLocked("configure simulation"); err != nil {
		return err
	}
	if k.netPlan == nil {
		return &IllegalStateError{Op: "configure simulation before SetNetPlan", State: NotStarted}
	}
	if generator == nil {
		return configError("generator", "", errors.New("generator is nil"))
	}
	if processor == nil {
		return configError("processor", "", errors.New("processor is nil"))
	}

	sp, fullSim, err := ParseSimParams(simParams)
	if err != nil {
		return err
	}
	fullGlobal, err := ParseGlobalParams(globalParams)
	if err != nil {
		return err
	}
	fullGen, err := componentParams("generator", generator, generatorParams)
	if err != nil {
		return err
	}
	fullProc, err := componentParams("processor", processor, processorParams)
	if err != nil {
		return err
	}

	k.runID = uuid.New()
	log := k.log.WithFields(logrus.Fields{"run_id": k.runID.String()})
	if !sp.HasStopLimit() {
		log.Warn("no simEvents or simTime limit configured; the run ends only when the event list drains or on request")
	}

	var st *trace.SimulationTrace
	if k.traceCfg.Level != "" && k.traceCfg.Level != trace.TraceLevelNone {
		st = trace.NewSimulationTrace(k.traceCfg)
		st.RunID = k.runID.String()
	}

	k.generator, k.processor = generator, processor
	k.simParams, k.globalParams = fullSim, fullGlobal
	k.generatorParams, k.processorParams = fullGen, fullProc
	k.trace = st
	k.core = newSimCore(coreConfig{
		params:    sp,
		generator: generator,
		processor: processor,
		listener:  k.listener,
		trace:     st,
		log:       log,
		claim:     k.claimCore,
	})
	k.initialized, k.started = false, false
	log.WithFields(logrus.Fields{
		"generator": generator.Description(),
		"processor": processor.Description(),
	}).Debug("simulation configured")
	return nil
}

// componentParams applies the component schema and its own validation.
func componentParams(role string, c Component, params Params) (Params, error) {
	full, err := ApplySchema(role, c.Parameters(), params)
	if err != nil {
		return nil, err
	}
	if v, ok := c.(Validator); ok {
		if err := v.ValidateParams(full); err != nil {
			var cfgErr *InvalidConfigurationError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			return nil, configError(role, "", err)
		}
	}
	return full, nil
}

// Initialize calls Initialize on the generator and then the processor.
// Failures are returned as *ComponentFailure before any run starts.
func (k *SimKernel) Initialize() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.core == nil {
		return &IllegalStateError{Op: "initialize before ConfigureSimulation", State: NotStarted}
	}
	if st := k.core.State(); st != NotStarted || k.started {
		return &IllegalStateError{Op: "initialize", State: st}
	}
	k.initialized = false
	err := k.core.call("generator", "initialize", func() error {
		return k.generator.Initialize(k.netPlan, k.generatorParams, k.simParams, k.globalParams)
	})
	if err != nil {
		return err
	}
	err = k.core.call("processor", "initialize", func() error {
		return k.processor.Initialize(k.netPlan, k.processorParams, k.simParams, k.globalParams)
	})
	if err != nil {
		return err
	}
	k.initialized = true
	return nil
}

// Run executes the configured run on the calling goroutine. It fails with
// IllegalStateError when the kernel is not initialized or a run was already
// started. The returned error is the failure that stopped the run, or nil.
func (k *SimKernel) Run(ctx context.Context) error {
	core, err := k.claimRun("run")
	if err != nil {
		return err
	}
	return core.Run(ctx)
}

// Start launches Run on a new goroutine. Use Wait or SimCore().Done() to
// observe completion.
func (k *SimKernel) Start(ctx context.Context) error {
	core, err := k.claimRun("start")
	if err != nil {
		return err
	}
	go func() {
		if err := core.Run(ctx); err != nil {
			k.log.WithError(err).Debug("run ended with failure")
		}
	}()
	return nil
}

// Wait blocks until the started run stops and returns its failure, if any.
func (k *SimKernel) Wait() error {
	k.mu.Lock()
	core, started := k.core, k.started
	k.mu.Unlock()
	if core == nil || !started {
		return &IllegalStateError{Op: "wait without a started run", State: NotStarted}
	}
	<-core.Done()
	if reason := core.Reason(); !IsGracefulStop(reason) {
		return reason
	}
	return nil
}

func (k *SimKernel) claimRun(op string) (*SimCore, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.core == nil {
		return nil, &IllegalStateError{Op: op + " before ConfigureSimulation", State: NotStarted}
	}
	if err := k.claimLocked(op, k.core); err != nil {
		return nil, err
	}
	return k.core, nil
}

// claimCore is called by SimCore.Run when the core is run directly.
func (k *SimKernel) claimCore(core *SimCore) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.core != core {
		return &IllegalStateError{Op: "run of a discarded core", State: core.State()}
	}
	return k.claimLocked("run", core)
}

func (k *SimKernel) claimLocked(op string, core *SimCore) error {
	if k.started {
		return &IllegalStateError{Op: op, State: core.State()}
	}
	if !k.initialized {
		return &IllegalStateError{Op: op + " before Initialize", State: core.State()}
	}
	k.started = true
	core.markClaimed()
	return nil
}

// checkIdleLocked rejects reconfiguration while a run is in progress.
func (k *SimKernel) checkIdleLocked(op string) error {
	if k.core == nil {
		return nil
	}
	if st := k.core.State(); runInProgress(st, k.started) {
		return &IllegalStateError{Op: op, State: k.runningState(st)}
	}
	return nil
}

// runInProgress reports whether a run is active, counting a run claimed by
// Start whose goroutine has not reached Running yet.
func runInProgress(st SimState, started bool) bool {
	return st.active() || (started && st == NotStarted)
}

// runningState reports a claimed-but-not-yet-running core as Running.
func (k *SimKernel) runningState(st SimState) SimState {
	if st == NotStarted {
		return Running
	}
	return st
}

// SimCore returns the core of the configured run, or nil.
func (k *SimKernel) SimCore() *SimCore {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.core
}

// NetPlan returns the live network state. It must not be modified while a run is active.
func (k *SimKernel) NetPlan() NetworkState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.netPlan
}

// InitialNetPlan returns a fresh copy of the state given to SetNetPlan, or nil.
func (k *SimKernel) InitialNetPlan() NetworkState {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.initialPlan == nil {
		return nil
	}
	return k.initialPlan.Clone()
}

// RunID identifies the current configuration; uuid.Nil when unconfigured.
func (k *SimKernel) RunID() uuid.UUID {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.runID
}

// Trace returns the dispatch trace of the current run, or nil when tracing is off.
func (k *SimKernel) Trace() *trace.SimulationTrace {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.trace
}

// Report returns the component reports of a stopped run.
func (k *SimKernel) Report() string {
	core := k.SimCore()
	if core == nil {
		return ""
	}
	return core.Report()
}

// Generator returns the configured generator, or nil.
func (k *SimKernel) Generator() EventGenerator {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.generator
}

// Processor returns the configured processor, or nil.
func (k *SimKernel) Processor() EventProcessor {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.processor
}

// Describe summarizes the configuration for logs.
func (k *SimKernel) Describe() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.core == nil {
		return "unconfigured"
	}
	return fmt.Sprintf("run %s: generator=%q processor=%q sim=%v", k.runID, k.generator.Description(),
		k.processor.Description(), k.simParams)
}
