package routine

import (
	"math"

	"github.com/felixgeelhaar/droid-go/domain/geom"
	"github.com/felixgeelhaar/droid-go/domain/grid"
)

// atDestination reports whether the agent stands on its target.
func atDestination(a *grid.Agent, g grid.Grid) bool {
	return math.Round(g.Distance(a.Target, a.Position)) == 0
}

// step advances the agent at most one unit along each axis toward its
// target and re-syncs its cell coordinates.
func step(a *grid.Agent, g grid.Grid) {
	a.Position.Y += geom.StepToward(a.Position.Y, a.Target.Y)
	a.Position.X += geom.StepToward(a.Position.X, a.Target.X)
	a.X, a.Y = g.WorldToCell(a.Position)
}

// approach is the move-toward-target primitive shared by every routine. It
// reports whether the agent is at its target, taking one step first when it
// is not.
func approach(a *grid.Agent, g grid.Grid) bool {
	if atDestination(a, g) {
		return true
	}
	step(a, g)
	return atDestination(a, g)
}

// MoveTo walks the agent to a fixed cell and succeeds on arrival.
type MoveTo struct {
	base
	destX int
	destY int
}

// NewMoveTo creates a routine heading for cell (x, y).
func NewMoveTo(x, y int, g grid.Grid, opts ...Option) *MoveTo {
	return &MoveTo{
		base:  newBase(KindMoveTo, g, buildOptions(opts)),
		destX: x,
		destY: y,
	}
}

// Destination returns the target cell.
func (m *MoveTo) Destination() (int, int) {
	return m.destX, m.destY
}

// Start begins moving.
func (m *MoveTo) Start(msg string) error {
	return m.start(msg)
}

// Reset returns the routine to none. The destination is kept.
func (m *MoveTo) Reset(msg string) {
	m.reset(msg)
}

// retarget re-initializes the routine in place for a new destination.
func (m *MoveTo) retarget(x, y int) {
	m.destX, m.destY = x, y
	m.rewind()
}

// Act takes one step toward the destination.
func (m *MoveTo) Act(agent *grid.Agent, g grid.Grid) Result {
	g, ok := m.begin(agent, g)
	if !ok {
		return m.result
	}

	x, y := grid.ClampCell(m.destX, m.destY, g.Size())
	agent.Target = g.CellToWorld(x, y)

	if approach(agent, g) {
		m.succeed("move to for "+agent.Name, nil)
	}
	return m.result
}
