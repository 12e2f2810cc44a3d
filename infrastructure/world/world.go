// Package world provides the in-memory board that routines act on.
package world

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/droid-go/domain/geom"
	"github.com/felixgeelhaar/droid-go/domain/grid"
)

// World is a square board holding an ordered roster of agents. It is not
// safe for concurrent use; the scheduler owns it for the length of a run.
type World struct {
	size     int
	cellSize float64
	origin   geom.Vec2
	agents   []*grid.Agent
	byName   map[string]int
}

// Option configures a World.
type Option func(*World)

// WithOrigin sets the world position of cell (0,0).
func WithOrigin(origin geom.Vec2) Option {
	return func(w *World) {
		w.origin = origin
	}
}

// WithCellSize sets the world-space edge length of one cell.
func WithCellSize(size float64) Option {
	return func(w *World) {
		if size > 0 {
			w.cellSize = size
		}
	}
}

// New creates an empty board of size x size cells.
func New(size int, opts ...Option) (*World, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", grid.ErrInvalidSize, size)
	}
	w := &World{
		size:     size,
		cellSize: 1,
		byName:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Size returns the edge length of the board in cells.
func (w *World) Size() int {
	return w.size
}

// Len returns the number of agents on the roster.
func (w *World) Len() int {
	return len(w.agents)
}

// Agent returns the agent at a 0-based roster index.
func (w *World) Agent(i int) (*grid.Agent, error) {
	if i < 0 || i >= len(w.agents) {
		return nil, fmt.Errorf("%w: %d (roster of %d)", grid.ErrIndexOutOfRange, i, len(w.agents))
	}
	return w.agents[i], nil
}

// Agents returns the roster in scheduling order.
func (w *World) Agents() []*grid.Agent {
	out := make([]*grid.Agent, len(w.agents))
	copy(out, w.agents)
	return out
}

// Index returns the roster index of the named agent.
func (w *World) Index(name string) (int, bool) {
	i, ok := w.byName[name]
	return i, ok
}

// CellToWorld converts cell coordinates to the world position of the cell
// centre.
func (w *World) CellToWorld(x, y int) geom.Vec2 {
	return w.origin.Add(geom.V(float64(x), float64(y)).Scale(w.cellSize))
}

// WorldToCell converts a world position to the nearest cell. The result is
// not clamped.
func (w *World) WorldToCell(v geom.Vec2) (int, int) {
	return v.Sub(w.origin).Scale(1 / w.cellSize).Round()
}

// CellSize returns the edge length of one cell.
func (w *World) CellSize() float64 {
	return w.cellSize
}

// Distance returns the Euclidean distance between two world positions.
func (w *World) Distance(a, b geom.Vec2) float64 {
	return a.Sub(b).Length()
}

// Spawn appends a stationary agent at cell (x, y).
func (w *World) Spawn(name string, x, y int) (*grid.Agent, error) {
	if _, ok := w.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", grid.ErrDuplicateAgent, name)
	}
	if !grid.InBounds(x, y, w.size) {
		return nil, fmt.Errorf("%w: (%d,%d) on %dx%d board", grid.ErrCellOutOfBounds, x, y, w.size, w.size)
	}

	pos := w.CellToWorld(x, y)
	a := &grid.Agent{
		Name:     name,
		Position: pos,
		Target:   pos,
		X:        x,
		Y:        y,
	}
	w.byName[name] = len(w.agents)
	w.agents = append(w.agents, a)
	return a, nil
}

// Place teleports the agent at roster index i to cell (x, y) and clears
// its target.
func (w *World) Place(i, x, y int) error {
	a, err := w.Agent(i)
	if err != nil {
		return err
	}
	if !grid.InBounds(x, y, w.size) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d board", grid.ErrCellOutOfBounds, x, y, w.size, w.size)
	}
	a.Position = w.CellToWorld(x, y)
	a.Target = a.Position
	a.X, a.Y = x, y
	return nil
}

// Label returns the single-character map symbol for roster index i.
func Label(i int) byte {
	const symbols = "123456789abcdefghijklmnopqrstuvwxyz"
	if i >= 0 && i < len(symbols) {
		return symbols[i]
	}
	return '#'
}

// Render writes an ASCII map with row 1 at the top. Empty cells are '.',
// agents are labelled by roster position and shared cells are '*'.
func (w *World) Render(out io.Writer) error {
	rows := make([][]byte, w.size)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(".", w.size))
	}
	for i, a := range w.agents {
		if !grid.InBounds(a.X, a.Y, w.size) {
			continue
		}
		c := &rows[a.Y-1][a.X-1]
		if *c == '.' {
			*c = Label(i)
		} else {
			*c = '*'
		}
	}

	var b strings.Builder
	for _, row := range rows {
		b.Write(row)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(out, b.String())
	return err
}

var _ grid.Grid = (*World)(nil)
