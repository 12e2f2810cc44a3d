package routine

import (
	"github.com/felixgeelhaar/droid-go/domain/grid"
)

// Direction is the heading along the current spiral ring.
type Direction int

// Ring headings, cycled in this order.
const (
	DirRight Direction = iota
	DirDown
	DirLeft
	DirUp
)

// String returns the heading name.
func (d Direction) String() string {
	switch d {
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirUp:
		return "up"
	default:
		return "unknown"
	}
}

// SpiralScan walks square rings from the board edge to its centre and back
// out again, one cell per tick, finishing on cell (1,1).
//
// Ring layer L spans cells [1+L, size-L] on both axes. Each ring is traced
// right, down, left, up from its top-left corner and closes on that corner;
// the next ring is entered diagonally from there.
type SpiralScan struct {
	base
	move      *MoveTo // owned for the routine's lifetime, re-targeted in place
	layer     int
	direction Direction
	inward    bool
	ringDone  bool
	homing    bool
	destX     int
	destY     int
}

// NewSpiralScan creates a spiral scan over g.
func NewSpiralScan(g grid.Grid, opts ...Option) *SpiralScan {
	o := buildOptions(opts)
	s := &SpiralScan{
		base: newBase(KindSpiralScan, g, o),
		// The sub-routine reports through the spiral, not on its own.
		move: NewMoveTo(1, 1, g, WithLifecycle(o.lifecycle)),
	}
	s.rewindSpiral()
	return s
}

func (s *SpiralScan) rewindSpiral() {
	s.layer = 0
	s.direction = DirRight
	s.inward = true
	s.ringDone = false
	s.homing = false
	s.destX, s.destY = 1, 1
	s.move.retarget(s.destX, s.destY)
}

// Layer returns the ring currently being traced.
func (s *SpiralScan) Layer() int {
	return s.layer
}

// Heading returns the current direction along the ring.
func (s *SpiralScan) Heading() Direction {
	return s.direction
}

// Inward reports whether the scan is still heading for the centre.
func (s *SpiralScan) Inward() bool {
	return s.inward
}

// Destination returns the cell the scan is heading for.
func (s *SpiralScan) Destination() (int, int) {
	return s.destX, s.destY
}

// Start begins the scan from cell (1,1).
func (s *SpiralScan) Start(msg string) error {
	if err := s.start(msg); err != nil {
		return err
	}
	s.move.retarget(s.destX, s.destY)
	return s.move.Start(" from a spiral scan")
}

// Reset returns the scan to the outermost ring, heading right.
func (s *SpiralScan) Reset(msg string) {
	s.rewindSpiral()
	s.reset(msg)
}

// Act delegates one step to the move sub-routine and picks the next spiral
// cell whenever the current one is reached.
func (s *SpiralScan) Act(agent *grid.Agent, g grid.Grid) Result {
	g, ok := s.begin(agent, g)
	if !ok {
		return s.result
	}
	if !s.move.IsRunning() {
		return s.result
	}

	s.move.Act(agent, g)

	switch {
	case s.move.IsSuccess():
		// A new ring can start on the cell just reached; skip it rather
		// than spend a tick standing still.
		x, y := s.destX, s.destY
		for s.advance(g.Size()); s.IsRunning() && s.destX == x && s.destY == y; {
			s.advance(g.Size())
		}
		if !s.IsRunning() {
			break
		}
		s.move.retarget(s.destX, s.destY)
		if err := s.move.Start(" from a spiral scan"); err != nil {
			s.fail("spiral scan cannot restart its move", err)
		}
	case s.move.IsFailure():
		mr := s.move.Result()
		s.fail("spiral scan move failed: "+mr.Reason, mr.Cause)
	}
	return s.result
}

// advance computes the next spiral cell after the current one is reached.
func (s *SpiralScan) advance(size int) {
	if s.homing {
		s.succeed("finished spiral scan for "+s.agent, nil)
		return
	}

	lo, hi := 1+s.layer, size-s.layer
	if s.ringDone || lo >= hi {
		s.ringDone = false
		s.nextRing(size)
		return
	}

	switch s.direction {
	case DirRight:
		s.destX++
		if s.destX >= hi {
			s.direction = DirDown
		}
	case DirDown:
		s.destY++
		if s.destY >= hi {
			s.direction = DirLeft
		}
	case DirLeft:
		s.destX--
		if s.destX <= lo {
			s.direction = DirUp
		}
	case DirUp:
		s.destY--
		if s.destY <= lo {
			s.ringDone = true
		}
	}
}

// nextRing moves one layer in or out after a ring is closed. Outward past
// layer 0 the scan heads home to (1,1).
func (s *SpiralScan) nextRing(size int) {
	if s.inward {
		s.layer++
		if s.layer >= size/2 {
			s.layer = size / 2
			s.inward = false
		}
	} else {
		s.layer--
		if s.layer <= 0 {
			s.layer = 0
			s.homing = true
			s.direction = DirRight
			s.destX, s.destY = 1, 1
			return
		}
	}
	s.direction = DirRight

	lo, hi := 1+s.layer, size-s.layer
	if lo > hi {
		// Even boards have no centre cell; step straight back out.
		s.nextRing(size)
		return
	}
	s.destX, s.destY = lo, lo
}
