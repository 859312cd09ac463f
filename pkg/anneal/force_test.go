package anneal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPenalty(t *testing.T) {
	assert.InDelta(t, 12.0, Penalty, 1e-12)
}

func TestForceModel_Disjoint(t *testing.T) {
	m := ForceModel{Width: 10}

	tests := []struct {
		name   string
		ax, bx int
	}{
		{"touching right", 0, 10},
		{"touching left", 10, 0},
		{"far apart", -50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, m.Overlaps(tt.ax, tt.bx))
			assert.Zero(t, m.OverlapForce(tt.ax, tt.bx))
			assert.Zero(t, m.OverlapForce(tt.bx, tt.ax))
		})
	}
}

func TestForceModel_Direction(t *testing.T) {
	m := ForceModel{Width: 10}

	// b starts 3 left of a: overlap depth 7.
	assert.InDelta(t, 10*7+12.0, m.OverlapForce(3, 0), 1e-9)
	assert.InDelta(t, -(10*7 + 12.0), m.OverlapForce(0, 3), 1e-9)
	assert.InDelta(t, 10*1+12.0, m.OverlapForce(9, 0), 1e-9)
}

func TestForceModel_Antisymmetric(t *testing.T) {
	m := ForceModel{Width: 7}
	for ax := -10; ax <= 10; ax++ {
		for bx := -10; bx <= 10; bx++ {
			if ax == bx {
				continue
			}
			assert.Equal(t, m.OverlapForce(ax, bx), -m.OverlapForce(bx, ax), "ax=%d bx=%d", ax, bx)
		}
	}
}

func TestForceModel_Tie(t *testing.T) {
	m := ForceModel{Width: 10}

	assert.InDelta(t, 112.0, m.Force(4, 4, 0, false), 1e-9, "unknown reciprocal defaults to a push right")
	assert.InDelta(t, 82.0, m.Force(4, 4, -82, true), 1e-9)
	assert.Zero(t, m.Force(4, 4, 0, true), "a recorded zero stays zero")
}
