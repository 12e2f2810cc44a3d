// Package grid defines the collaborator contract routines use to read the
// world: a square board of cells and the roster of agents standing on it.
package grid

import "github.com/felixgeelhaar/droid-go/domain/geom"

// Agent is a droid on the board. Routines write Position and Target; the
// cell coordinates follow Position.
type Agent struct {
	// Name identifies the agent in logs and reports.
	Name string `json:"name"`

	// Position is the current world-space location.
	Position geom.Vec2 `json:"position"`

	// Target is the world-space location the agent is heading for.
	Target geom.Vec2 `json:"target"`

	// X and Y are the 1-based cell coordinates of Position.
	X int `json:"x"`
	Y int `json:"y"`
}

// Cell returns the agent's cell coordinates.
func (a *Agent) Cell() (int, int) {
	return a.X, a.Y
}

// IsStationary reports whether the agent has nowhere left to go.
func (a *Agent) IsStationary() bool {
	return a.Position == a.Target
}

// Grid is the read side of the board that routines depend on.
type Grid interface {
	// Size returns the edge length of the square board in cells.
	Size() int

	// Len returns the number of agents on the roster.
	Len() int

	// Agent returns the agent at a 0-based roster index.
	Agent(i int) (*Agent, error)

	// CellToWorld converts 1-based cell coordinates to a world position.
	CellToWorld(x, y int) geom.Vec2

	// WorldToCell converts a world position to the nearest cell, unclamped.
	WorldToCell(v geom.Vec2) (int, int)

	// CellSize returns the linear size of one cell in world units.
	CellSize() float64

	// Distance returns the Euclidean distance between two world positions.
	Distance(a, b geom.Vec2) float64
}

// ClampCell limits cell coordinates to [1, size] on both axes.
func ClampCell(x, y, size int) (int, int) {
	return geom.Clamp(x, 1, size), geom.Clamp(y, 1, size)
}

// InBounds reports whether a cell lies on a board of the given size.
func InBounds(x, y, size int) bool {
	return x >= 1 && x <= size && y >= 1 && y <= size
}

// ValidIndex reports whether i addresses an agent on g's roster.
func ValidIndex(g Grid, i int) bool {
	return g != nil && i >= 0 && i < g.Len()
}
