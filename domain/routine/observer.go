package routine

// Transition is the observable record of one lifecycle move.
type Transition struct {
	Kind   Kind
	Agent  string
	From   State
	To     State
	Reason string
	Cause  error
}

// Observer receives every start, reset, succeed and fail transition. It is
// diagnostic only; routines never depend on its behaviour.
type Observer interface {
	OnTransition(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(t Transition)

// OnTransition calls f(t).
func (f ObserverFunc) OnTransition(t Transition) {
	f(t)
}

// Observers fans a transition out to several observers in order.
type Observers []Observer

// OnTransition notifies each observer.
func (o Observers) OnTransition(t Transition) {
	for _, obs := range o {
		if obs != nil {
			obs.OnTransition(t)
		}
	}
}

type noopObserver struct{}

func (noopObserver) OnTransition(Transition) {}
