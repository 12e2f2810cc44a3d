package routine

import (
	"fmt"

	"github.com/felixgeelhaar/droid-go/domain/geom"
	"github.com/felixgeelhaar/droid-go/domain/grid"
)

// Unset marks a Protect index that must be resolved by a Selector.
const Unset = -1

// Selector resolves the protected and threatening agents for a Protect
// routine whose indices were left unset. Indices are 0-based; the
// configured ones are passed in (Unset where open) and must come back
// unchanged.
type Selector interface {
	Select(self *grid.Agent, g grid.Grid, protected, threat int) (int, int, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(self *grid.Agent, g grid.Grid, protected, threat int) (int, int, error)

// Select calls f.
func (f SelectorFunc) Select(self *grid.Agent, g grid.Grid, protected, threat int) (int, int, error) {
	return f(self, g, protected, threat)
}

// Protect positions the agent at the midpoint between a protected agent
// and a threatening one, tracking both as they move.
type Protect struct {
	base
	protected int // 0-based, or Unset
	threat    int // 0-based, or Unset
	selector  Selector
	destX     int
	destY     int
}

// NewProtect creates a routine shielding agent a from agent b. Both are
// 1-based roster indices; Unset defers the choice to the Selector.
func NewProtect(a, b int, g grid.Grid, opts ...Option) *Protect {
	o := buildOptions(opts)
	p := &Protect{
		base:      newBase(KindProtect, g, o),
		protected: a,
		threat:    b,
		selector:  o.selector,
		destX:     1,
		destY:     1,
	}
	if a != Unset {
		p.protected = a - 1
	}
	if b != Unset {
		p.threat = b - 1
	}
	return p
}

// Indices returns the configured 0-based indices (Unset when unresolved).
func (p *Protect) Indices() (protected, threat int) {
	return p.protected, p.threat
}

// Destination returns the last computed target cell.
func (p *Protect) Destination() (int, int) {
	return p.destX, p.destY
}

// Start begins protecting.
func (p *Protect) Start(msg string) error {
	return p.start(msg)
}

// Reset returns the routine to none.
func (p *Protect) Reset(msg string) {
	p.destX, p.destY = 1, 1
	p.reset(msg)
}

// Act re-targets the midpoint between the two agents and takes one step.
func (p *Protect) Act(agent *grid.Agent, g grid.Grid) Result {
	g, ok := p.begin(agent, g)
	if !ok {
		return p.result
	}

	if g.Len() == 0 {
		p.fail("no agents available", fmt.Errorf("%w: %w", ErrInvalidReference, grid.ErrEmptyRoster))
		return p.result
	}

	a, b, err := p.resolve(agent, g)
	if err != nil {
		p.fail("cannot select agents to protect", err)
		return p.result
	}

	if !grid.ValidIndex(g, a) || !grid.ValidIndex(g, b) {
		p.fail(fmt.Sprintf("invalid agent indices protected=%d threat=%d", a, b),
			fmt.Errorf("%w: protected=%d threat=%d roster=%d", ErrInvalidReference, a, b, g.Len()))
		return p.result
	}

	pa, err := g.Agent(a)
	if err != nil {
		p.fail(fmt.Sprintf("invalid protected index %d", a), fmt.Errorf("%w: %w", ErrInvalidReference, err))
		return p.result
	}
	pb, err := g.Agent(b)
	if err != nil {
		p.fail(fmt.Sprintf("invalid threat index %d", b), fmt.Errorf("%w: %w", ErrInvalidReference, err))
		return p.result
	}

	from := geom.V(float64(pa.X), float64(pa.Y))
	ab := geom.V(float64(pb.X-pa.X), float64(pb.Y-pa.Y))
	x, y := from.Add(ab.Scale(0.5)).Round()
	p.destX, p.destY = grid.ClampCell(x, y, g.Size())
	agent.Target = g.CellToWorld(p.destX, p.destY)

	if approach(agent, g) {
		p.succeed("protect "+pa.Name+" from "+pb.Name+" for "+agent.Name, nil)
	}
	return p.result
}

// resolve fills unset indices from the selector.
func (p *Protect) resolve(agent *grid.Agent, g grid.Grid) (int, int, error) {
	a, b := p.protected, p.threat
	if a != Unset && b != Unset {
		return a, b, nil
	}
	if p.selector == nil {
		return 0, 0, fmt.Errorf("%w: protected=%d threat=%d and no selector", ErrUnresolvedReference, a, b)
	}
	sa, sb, err := p.selector.Select(agent, g, a, b)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrUnresolvedReference, err)
	}
	if a == Unset {
		a = sa
	}
	if b == Unset {
		b = sb
	}
	if a == b {
		return 0, 0, fmt.Errorf("%w: selector chose agent %d as both protected and threat", ErrUnresolvedReference, a)
	}
	return a, b, nil
}
