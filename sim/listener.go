package sim

import "github.com/sirupsen/logrus"

// Listener observes a simulation run from outside the simulation goroutine.
//
// SimulationStateChanged fires on every state transition. reason is nil for a
// normal completion, an *EndOfSimulation when a component ended the run, and a
// *ComponentFailure when a component failed.
//
// Refresh(true) is delivered exactly once per start and stop transition, just
// before SimulationStateChanged. Refresh(false) is a best-effort hint and may
// be dropped or coalesced.
type Listener interface {
	Refresh(force bool)
	SimulationStateChanged(state SimState, reason error)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnRefresh      func(force bool)
	OnStateChanged func(state SimState, reason error)
}

func (l ListenerFuncs) Refresh(force bool) {
	if l.OnRefresh != nil {
		l.OnRefresh(force)
	}
}

func (l ListenerFuncs) SimulationStateChanged(state SimState, reason error) {
	if l.OnStateChanged != nil {
		l.OnStateChanged(state, reason)
	}
}

// LogListener reports state changes through logrus.
type LogListener struct {
	Log *logrus.Entry
}

// NewLogListener returns a LogListener writing to the standard logrus logger.
func NewLogListener() *LogListener {
	return &LogListener{Log: logrus.NewEntry(logrus.StandardLogger())}
}

func (l *LogListener) Refresh(force bool) {
	l.Log.WithField("force", force).Debug("refresh")
}

func (l *LogListener) SimulationStateChanged(state SimState, reason error) {
	entry := l.Log.WithField("state", state.String())
	switch {
	case reason == nil:
		entry.Info("simulation state changed")
	case IsGracefulStop(reason):
		entry.WithField("reason", reason.Error()).Info("simulation state changed")
	default:
		entry.WithError(reason).Error("simulation stopped abnormally")
	}
}
