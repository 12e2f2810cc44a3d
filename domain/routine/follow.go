package routine

import (
	"fmt"

	"github.com/felixgeelhaar/droid-go/domain/grid"
)

// FollowBehind keeps the agent one cell behind a leader, re-deriving the
// spot from the leader's direction of travel every tick.
type FollowBehind struct {
	base
	leader int // 0-based roster index
	destX  int
	destY  int
}

// NewFollowBehind creates a routine following the leader at a 1-based
// roster index.
func NewFollowBehind(leader int, g grid.Grid, opts ...Option) *FollowBehind {
	return &FollowBehind{
		base:   newBase(KindFollowBehind, g, buildOptions(opts)),
		leader: leader - 1,
	}
}

// Leader returns the 0-based roster index being followed.
func (f *FollowBehind) Leader() int {
	return f.leader
}

// Destination returns the last derived target cell.
func (f *FollowBehind) Destination() (int, int) {
	return f.destX, f.destY
}

// Start begins following.
func (f *FollowBehind) Start(msg string) error {
	return f.start(msg)
}

// Reset returns the routine to none.
func (f *FollowBehind) Reset(msg string) {
	f.destX, f.destY = 0, 0
	f.reset(msg)
}

// Act re-targets the cell behind the leader and takes one step toward it.
func (f *FollowBehind) Act(agent *grid.Agent, g grid.Grid) Result {
	g, ok := f.begin(agent, g)
	if !ok {
		return f.result
	}

	if g.Len() == 0 {
		f.fail("no agents to follow", fmt.Errorf("%w: %w", ErrInvalidReference, grid.ErrEmptyRoster))
		return f.result
	}
	if !grid.ValidIndex(g, f.leader) {
		f.fail(fmt.Sprintf("invalid leader index %d", f.leader),
			fmt.Errorf("%w: leader index %d outside roster of %d", ErrInvalidReference, f.leader, g.Len()))
		return f.result
	}
	leader, err := g.Agent(f.leader)
	if err != nil {
		f.fail(fmt.Sprintf("invalid leader index %d", f.leader), fmt.Errorf("%w: %w", ErrInvalidReference, err))
		return f.result
	}

	if leader.IsStationary() {
		f.succeed("leader "+leader.Name+" is stationary, stopping", ErrStationaryLeader)
		return f.result
	}

	// dir points from the leader's target back to the leader; the follow
	// point is one cell against it.
	dir := leader.Position.Sub(leader.Target)
	behind := leader.Position.Sub(dir.Normalize().Scale(g.CellSize()))
	x, y := g.WorldToCell(behind)
	f.destX, f.destY = grid.ClampCell(x, y, g.Size())
	agent.Target = g.CellToWorld(f.destX, f.destY)

	if approach(agent, g) {
		f.succeed("follow behind "+leader.Name+" for "+agent.Name, nil)
	}
	return f.result
}
