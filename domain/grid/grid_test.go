package grid

import (
	"testing"

	"github.com/felixgeelhaar/droid-go/domain/geom"
)

func TestClampCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		x, y, size   int
		wantX, wantY int
	}{
		{"inside", 3, 4, 8, 3, 4},
		{"below", 0, -3, 8, 1, 1},
		{"above", 9, 12, 8, 8, 8},
		{"mixed", -1, 9, 5, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			x, y := ClampCell(tt.x, tt.y, tt.size)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("ClampCell(%d, %d, %d) = (%d,%d), want (%d,%d)",
					tt.x, tt.y, tt.size, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestInBounds(t *testing.T) {
	t.Parallel()

	if !InBounds(1, 1, 4) {
		t.Error("InBounds(1,1,4) = false, want true")
	}
	if !InBounds(4, 4, 4) {
		t.Error("InBounds(4,4,4) = false, want true")
	}
	if InBounds(0, 2, 4) {
		t.Error("InBounds(0,2,4) = true, want false")
	}
	if InBounds(2, 5, 4) {
		t.Error("InBounds(2,5,4) = true, want false")
	}
}

func TestAgent_IsStationary(t *testing.T) {
	t.Parallel()

	a := &Agent{Name: "r2", Position: geom.V(2, 2), Target: geom.V(2, 2), X: 2, Y: 2}
	if !a.IsStationary() {
		t.Error("IsStationary() = false, want true")
	}

	a.Target = geom.V(3, 2)
	if a.IsStationary() {
		t.Error("IsStationary() = true, want false")
	}

	if x, y := a.Cell(); x != 2 || y != 2 {
		t.Errorf("Cell() = (%d,%d), want (2,2)", x, y)
	}
}

func TestValidIndex_NilGrid(t *testing.T) {
	t.Parallel()

	if ValidIndex(nil, 0) {
		t.Error("ValidIndex(nil, 0) = true, want false")
	}
}
