package routine

import (
	"fmt"

	"github.com/felixgeelhaar/droid-go/domain/grid"
)

// Kind names one of the closed set of routine variants.
type Kind string

// Routine kinds.
const (
	KindMoveTo       Kind = "move_to"
	KindFollowBehind Kind = "follow_behind"
	KindSpiralScan   Kind = "spiral_scan"
	KindProtect      Kind = "protect"
)

// IsValid returns true if the kind names a known routine.
func (k Kind) IsValid() bool {
	switch k {
	case KindMoveTo, KindFollowBehind, KindSpiralScan, KindProtect:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Kinds returns every routine kind.
func Kinds() []Kind {
	return []Kind{KindMoveTo, KindFollowBehind, KindSpiralScan, KindProtect}
}

// Routine is a single per-agent behaviour driven one tick at a time.
type Routine interface {
	// Kind identifies the variant.
	Kind() Kind

	// Start moves the routine from none to running.
	Start(msg string) error

	// Act performs one tick of behaviour for the acting agent. It changes
	// nothing unless the routine is running.
	Act(agent *grid.Agent, g grid.Grid) Result

	// Reset returns the routine to none and clears all progress.
	Reset(msg string)

	// State returns the current lifecycle state.
	State() State

	// Result returns the outcome of the last transition.
	Result() Result

	IsRunning() bool
	IsSuccess() bool
	IsFailure() bool
}

// Option configures a routine.
type Option func(*options)

type options struct {
	observer  Observer
	lifecycle LifecycleFactory
	selector  Selector
}

// WithObserver sets the sink for lifecycle transitions.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// WithLifecycle sets the factory used to create the routine's lifecycle.
func WithLifecycle(f LifecycleFactory) Option {
	return func(opts *options) {
		opts.lifecycle = f
	}
}

// WithSelector sets the policy that resolves unset Protect indices.
func WithSelector(s Selector) Option {
	return func(opts *options) {
		opts.selector = s
	}
}

func buildOptions(opts []Option) options {
	o := options{
		observer:  noopObserver{},
		lifecycle: NewLifecycle,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = noopObserver{}
	}
	if o.lifecycle == nil {
		o.lifecycle = NewLifecycle
	}
	return o
}

// base carries the state machine shared by every variant.
type base struct {
	kind     Kind
	grid     grid.Grid // borrowed from the scheduler, never owned
	lc       Lifecycle
	newLC    LifecycleFactory
	observer Observer
	result   Result
	agent    string
}

func newBase(kind Kind, g grid.Grid, o options) base {
	return base{
		kind:     kind,
		grid:     g,
		lc:       o.lifecycle(),
		newLC:    o.lifecycle,
		observer: o.observer,
		result:   Result{Outcome: StateNone},
	}
}

func (b *base) Kind() Kind      { return b.kind }
func (b *base) State() State    { return b.lc.State() }
func (b *base) Result() Result  { return b.result }
func (b *base) IsRunning() bool { return b.lc.State() == StateRunning }
func (b *base) IsSuccess() bool { return b.lc.State() == StateSuccess }
func (b *base) IsFailure() bool { return b.lc.State() == StateFailure }

func (b *base) start(msg string) error {
	from := b.lc.State()
	if from != StateNone {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyStarted, b.kind, from)
	}
	if err := b.lc.Transition(StateRunning, msg); err != nil {
		return err
	}
	b.result = Result{Outcome: StateRunning, Reason: msg}
	b.notify(from, msg, nil)
	return nil
}

// reset forces the lifecycle back to none. A lifecycle that refuses the
// move is replaced with a fresh one.
func (b *base) reset(msg string) {
	from := b.lc.State()
	if err := b.lc.Transition(StateNone, msg); err != nil {
		b.lc = b.newLC()
	}
	b.result = Result{Outcome: StateNone, Reason: msg}
	b.agent = ""
	b.notify(from, msg, nil)
}

// rewind silently returns the lifecycle to none. Used when a parent routine
// re-targets a sub-routine it owns.
func (b *base) rewind() {
	if err := b.lc.Transition(StateNone, ""); err != nil {
		b.lc = b.newLC()
	}
	b.result = Result{Outcome: StateNone}
}

func (b *base) succeed(reason string, cause error) {
	b.finish(StateSuccess, reason, cause)
}

func (b *base) fail(reason string, cause error) {
	b.finish(StateFailure, reason, cause)
}

func (b *base) finish(to State, reason string, cause error) {
	from := b.lc.State()
	if from != StateRunning {
		return
	}
	if err := b.lc.Transition(to, reason); err != nil {
		return
	}
	b.result = Result{Outcome: to, Reason: reason, Cause: cause}
	b.notify(from, reason, cause)
}

func (b *base) notify(from State, reason string, cause error) {
	b.observer.OnTransition(Transition{
		Kind:   b.kind,
		Agent:  b.agent,
		From:   from,
		To:     b.lc.State(),
		Reason: reason,
		Cause:  cause,
	})
}

// begin guards every Act: it reports whether the routine should act this
// tick, resolving the grid to act on. A missing agent or grid fails the
// routine.
func (b *base) begin(agent *grid.Agent, g grid.Grid) (grid.Grid, bool) {
	if !b.IsRunning() {
		return nil, false
	}
	if agent == nil {
		b.fail("no acting agent", ErrNoAgent)
		return nil, false
	}
	b.agent = agent.Name
	if g == nil {
		g = b.grid
	}
	if g == nil {
		b.fail("no grid for "+agent.Name, ErrNoGrid)
		return nil, false
	}
	return g, true
}
