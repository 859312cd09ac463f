package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sliderlabel/pkg/model"
)

func TestScorer(t *testing.T) {
	s := NewScorer(10, 4)

	tests := []struct {
		name       string
		placements []model.Placement
		want       Quality
	}{
		{
			name: "Empty",
			want: Quality{},
		},
		{
			name: "Disjoint",
			placements: []model.Placement{
				{X: 0, Y: 0, LabelX: -5, Placed: true},
				{X: 100, Y: 0, LabelX: 95, Placed: true},
			},
			want: Quality{LabeledRatio: 1},
		},
		{
			name: "Touching edges do not overlap",
			placements: []model.Placement{
				{X: 10, Y: 0, LabelX: 0, Placed: true},
				{X: 15, Y: 0, LabelX: 10, Placed: true},
				{X: 12, Y: 4, LabelX: 5, Placed: true},
			},
			want: Quality{LabeledRatio: 1},
		},
		{
			name: "Overlap counted once",
			placements: []model.Placement{
				{X: 10, Y: 0, LabelX: 5, Placed: true},
				{X: 12, Y: 2, LabelX: 8, Placed: true},
			},
			want: Quality{LabeledRatio: 1, Overlaps: 1},
		},
		{
			name: "Removed labels are ignored",
			placements: []model.Placement{
				{X: 10, Y: 0, LabelX: 5, Placed: true},
				{X: 10, Y: 0, Placed: false},
				{X: 10, Y: 0, Placed: false},
				{X: 10, Y: 0, LabelX: 15, Placed: true},
			},
			want: Quality{LabeledRatio: 0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.placements))
		})
	}
}
