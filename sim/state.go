package sim

import "fmt"

// SimState is the state of a SimCore.
//
//	NotStarted -> Running -> Stopped
//	Running <-> Paused
//	Paused -> Stopped
//
// Stopped is terminal; only a kernel Reset leads back to NotStarted.
type SimState int

const (
	NotStarted SimState = iota
	Running
	Paused
	Stopped
)

func (s SimState) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	case Stopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("SimState(%d)", int(s))
	}
}

// active reports whether a run is in progress.
func (s SimState) active() bool {
	return s == Running || s == Paused
}

// StopCause records why the drive loop terminated.
type StopCause int

const (
	CauseNone StopCause = iota
	CauseExhausted
	CauseEventLimit
	CauseTimeLimit
	CauseExternalStop
	CauseEndRequested
	CauseFailure
)

func (c StopCause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseExhausted:
		return "exhausted"
	case CauseEventLimit:
		return "event-limit"
	case CauseTimeLimit:
		return "time-limit"
	case CauseExternalStop:
		return "external-stop"
	case CauseEndRequested:
		return "requested-by-component"
	case CauseFailure:
		return "failure"
	default:
		return fmt.Sprintf("StopCause(%d)", int(c))
	}
}
