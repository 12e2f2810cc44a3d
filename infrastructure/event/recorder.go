package event

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// Recorder stamps events with a run id and the current tick before handing
// them to a publisher. It doubles as a routine.Observer so every lifecycle
// transition lands in the event log.
type Recorder struct {
	pub   event.Publisher
	runID string

	mu   sync.Mutex
	tick int
	err  error
}

// NewRecorder creates a recorder for one run.
func NewRecorder(pub event.Publisher, runID string) *Recorder {
	return &Recorder{pub: pub, runID: runID}
}

// RunID returns the run the recorder writes to.
func (r *Recorder) RunID() string {
	return r.runID
}

// SetTick sets the tick stamped on transition events.
func (r *Recorder) SetTick(tick int) {
	r.mu.Lock()
	r.tick = tick
	r.mu.Unlock()
}

// Record publishes one event. The first failure is also kept for Err.
func (r *Recorder) Record(ctx context.Context, typ event.Type, payload any) error {
	e, err := event.NewEvent(r.runID, typ, payload)
	if err == nil {
		err = r.pub.Publish(ctx, e)
	}
	if err != nil {
		r.mu.Lock()
		if r.err == nil {
			r.err = err
		}
		r.mu.Unlock()
	}
	return err
}

// OnTransition records a routine.transitioned event.
func (r *Recorder) OnTransition(t routine.Transition) {
	r.mu.Lock()
	tick := r.tick
	r.mu.Unlock()

	payload := event.RoutineTransitionedPayload{
		Tick:   tick,
		Agent:  t.Agent,
		Kind:   t.Kind,
		From:   t.From,
		To:     t.To,
		Reason: t.Reason,
	}
	if t.Cause != nil {
		payload.Cause = t.Cause.Error()
	}
	_ = r.Record(context.Background(), event.TypeRoutineTransitioned, payload)
}

// Err returns the first publish failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes the publisher.
func (r *Recorder) Close() error {
	return errors.Join(r.Err(), r.pub.Close())
}

var _ routine.Observer = (*Recorder)(nil)
