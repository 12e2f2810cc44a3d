package telemetry

import (
	"context"

	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// TransitionObserver counts routine transitions and annotates the current
// tick span. SetContext points it at the span of the tick being run.
type TransitionObserver struct {
	metrics Metrics
	ctx     context.Context
}

// NewTransitionObserver creates an observer that records into m.
func NewTransitionObserver(m Metrics) *TransitionObserver {
	if m == nil {
		m = &NoopMetricsProvider{}
	}
	return &TransitionObserver{metrics: m, ctx: context.Background()}
}

// SetContext sets the context used for recording.
func (o *TransitionObserver) SetContext(ctx context.Context) {
	o.ctx = ctx
}

// OnTransition implements routine.Observer.
func (o *TransitionObserver) OnTransition(t routine.Transition) {
	o.metrics.RecordTransition(o.ctx, string(t.Kind), t.From.String(), t.To.String())
	AddTransition(o.ctx, t)
}

var _ routine.Observer = (*TransitionObserver)(nil)
