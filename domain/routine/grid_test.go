package routine

import (
	"fmt"
	"testing"

	"github.com/felixgeelhaar/droid-go/domain/geom"
	"github.com/felixgeelhaar/droid-go/domain/grid"
)

// testGrid is a minimal unit-cell board for routine tests.
type testGrid struct {
	size   int
	agents []*grid.Agent
}

func newTestGrid(size int) *testGrid {
	return &testGrid{size: size}
}

func (g *testGrid) add(name string, x, y int) *grid.Agent {
	a := &grid.Agent{
		Name:     name,
		Position: geom.V(float64(x), float64(y)),
		Target:   geom.V(float64(x), float64(y)),
		X:        x,
		Y:        y,
	}
	g.agents = append(g.agents, a)
	return a
}

func (g *testGrid) Size() int { return g.size }
func (g *testGrid) Len() int  { return len(g.agents) }

func (g *testGrid) Agent(i int) (*grid.Agent, error) {
	if i < 0 || i >= len(g.agents) {
		return nil, fmt.Errorf("%w: %d", grid.ErrIndexOutOfRange, i)
	}
	return g.agents[i], nil
}

func (g *testGrid) CellToWorld(x, y int) geom.Vec2     { return geom.V(float64(x), float64(y)) }
func (g *testGrid) WorldToCell(v geom.Vec2) (int, int) { return v.Round() }
func (g *testGrid) CellSize() float64                  { return 1 }
func (g *testGrid) Distance(a, b geom.Vec2) float64    { return a.Sub(b).Length() }

// snapshot copies every agent position.
func (g *testGrid) snapshot() []geom.Vec2 {
	out := make([]geom.Vec2, len(g.agents))
	for i, a := range g.agents {
		out[i] = a.Position
	}
	return out
}

// checkSingleStep fails the test when an agent moved more than one unit
// along either axis.
func checkSingleStep(t *testing.T, before, after geom.Vec2) {
	t.Helper()
	d := after.Sub(before)
	if d.X > 1 || d.X < -1 || d.Y > 1 || d.Y < -1 {
		t.Fatalf("agent moved %v in one tick (from %v to %v)", d, before, after)
	}
}

// recorder collects transitions.
type recorder struct {
	transitions []Transition
}

func (r *recorder) OnTransition(t Transition) {
	r.transitions = append(r.transitions, t)
}

var _ grid.Grid = (*testGrid)(nil)
