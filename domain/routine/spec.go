package routine

import (
	"fmt"

	"github.com/felixgeelhaar/droid-go/domain/grid"
)

// Spec describes a routine to build. Agent indices are 1-based, as they
// arrive from configuration.
type Spec struct {
	// Kind selects the variant.
	Kind Kind `json:"kind" yaml:"kind"`

	// Leader is the agent followed by follow_behind.
	Leader int `json:"leader,omitempty" yaml:"leader,omitempty"`

	// Protected and Threat are the agents used by protect. Unset (-1)
	// leaves the choice to a Selector.
	Protected int `json:"protected,omitempty" yaml:"protected,omitempty"`
	Threat    int `json:"threat,omitempty" yaml:"threat,omitempty"`

	// X and Y are the destination cell for move_to.
	X int `json:"x,omitempty" yaml:"x,omitempty"`
	Y int `json:"y,omitempty" yaml:"y,omitempty"`
}

// String returns a compact description of the spec.
func (s Spec) String() string {
	switch s.Kind {
	case KindMoveTo:
		return fmt.Sprintf("%s(%d,%d)", s.Kind, s.X, s.Y)
	case KindFollowBehind:
		return fmt.Sprintf("%s(leader=%d)", s.Kind, s.Leader)
	case KindProtect:
		return fmt.Sprintf("%s(protected=%d, threat=%d)", s.Kind, s.Protected, s.Threat)
	default:
		return string(s.Kind)
	}
}

// New builds the routine variant named by spec.Kind.
func New(spec Spec, g grid.Grid, opts ...Option) (Routine, error) {
	switch spec.Kind {
	case KindMoveTo:
		return NewMoveTo(spec.X, spec.Y, g, opts...), nil
	case KindFollowBehind:
		return NewFollowBehind(spec.Leader, g, opts...), nil
	case KindSpiralScan:
		return NewSpiralScan(g, opts...), nil
	case KindProtect:
		return NewProtect(spec.Protected, spec.Threat, g, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
}

// Ensure implementations satisfy the interface.
var (
	_ Routine = (*MoveTo)(nil)
	_ Routine = (*FollowBehind)(nil)
	_ Routine = (*SpiralScan)(nil)
	_ Routine = (*Protect)(nil)
)
