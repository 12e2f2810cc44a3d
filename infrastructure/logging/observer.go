package logging

import (
	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// LogObserver writes every routine transition to a bolt logger. Failures
// are logged at warn, everything else at debug.
type LogObserver struct {
	logger *bolt.Logger
	runID  string
}

// NewLogObserver creates an observer writing to logger, or to the default
// logger when nil.
func NewLogObserver(logger *bolt.Logger, runID string) *LogObserver {
	return &LogObserver{logger: logger, runID: runID}
}

// OnTransition implements routine.Observer.
func (o *LogObserver) OnTransition(t routine.Transition) {
	logger := o.logger
	if logger == nil {
		logger = Get()
	}

	ev := &Entry{ev: logger.Debug()}
	if t.To == routine.StateFailure {
		ev = &Entry{ev: logger.Warn()}
	}

	if o.runID != "" {
		ev.Add(RunID(o.runID))
	}
	ev.Add(Agent(t.Agent)).
		Add(Routine(t.Kind)).
		Add(FromState(t.From)).
		Add(ToState(t.To)).
		Add(Reason(t.Reason)).
		Add(ErrorField(t.Cause)).
		Msg("routine transition")
}

var _ routine.Observer = (*LogObserver)(nil)
