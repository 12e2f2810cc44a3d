package application

import (
	"fmt"

	"github.com/felixgeelhaar/droid-go/domain/geom"
	"github.com/felixgeelhaar/droid-go/domain/grid"
	"github.com/felixgeelhaar/droid-go/domain/routine"
)

// NearestSelector resolves unset protect references. An open protected
// slot gets the acting agent's nearest neighbour; an open threat slot gets
// the agent nearest to the protected one. Configured indices are kept and
// never chosen for the other slot. Ties go to the lower roster index.
type NearestSelector struct{}

// Select implements routine.Selector. Indices are 0-based.
func (NearestSelector) Select(self *grid.Agent, g grid.Grid, protected, threat int) (int, int, error) {
	if g == nil || g.Len() == 0 {
		return 0, 0, grid.ErrEmptyRoster
	}
	if self == nil {
		return 0, 0, routine.ErrNoAgent
	}

	selfIdx := -1
	for i := 0; i < g.Len(); i++ {
		if a, err := g.Agent(i); err == nil && a == self {
			selfIdx = i
			break
		}
	}

	if protected == routine.Unset {
		protected = nearest(g, self.Position, selfIdx, threat)
		if protected < 0 {
			return 0, 0, fmt.Errorf("%w: nothing to protect for %s", ErrNoCandidates, self.Name)
		}
	}
	if threat != routine.Unset {
		return protected, threat, nil
	}

	pa, err := g.Agent(protected)
	if err != nil {
		return 0, 0, err
	}
	threat = nearest(g, pa.Position, selfIdx, protected)
	if threat < 0 {
		return 0, 0, fmt.Errorf("%w: no threat near %s", ErrNoCandidates, pa.Name)
	}
	return protected, threat, nil
}

// nearest returns the roster index closest to p, skipping the excluded
// indices, or -1 when none is left.
func nearest(g grid.Grid, p geom.Vec2, exclude ...int) int {
	best, bestDist := -1, 0.0
	for i := 0; i < g.Len(); i++ {
		if contains(exclude, i) {
			continue
		}
		a, err := g.Agent(i)
		if err != nil {
			continue
		}
		d := g.Distance(p, a.Position)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

var _ routine.Selector = NearestSelector{}
