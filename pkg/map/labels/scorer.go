package labels

import (
	"sliderlabel/pkg/anneal"
	"sliderlabel/pkg/model"
	"sliderlabel/pkg/spatial"
)

// Quality summarizes how well a labeling turned out.
type Quality struct {
	LabeledRatio float64 // placed labels over input points
	Overlaps     int     // overlapping pairs among placed labels
}

// Scorer measures finished placements independently of the annealer's own
// bookkeeping.
type Scorer struct {
	width, height int
}

// NewScorer creates a Scorer for labels of the given size.
func NewScorer(width, height int) *Scorer {
	return &Scorer{width: width, height: height}
}

// Score computes the quality of placements.
func (s *Scorer) Score(placements []model.Placement) Quality {
	if len(placements) == 0 {
		return Quality{}
	}

	idx := spatial.NewSliderIndex(s.width, s.height)
	placed := 0
	for i, p := range placements {
		if !p.Placed {
			continue
		}
		placed++
		idx.Insert(anneal.Handle(i), anneal.Point{X: p.X, Y: p.Y})
	}

	overlaps := 0
	for i, p := range placements {
		if !p.Placed {
			continue
		}
		for _, h := range idx.Neighbors(anneal.Handle(i)) {
			j := int(h)
			if j <= i {
				continue
			}
			if s.overlaps(p, placements[j]) {
				overlaps++
			}
		}
	}

	return Quality{
		LabeledRatio: float64(placed) / float64(len(placements)),
		Overlaps:     overlaps,
	}
}

// overlaps reports whether two label rectangles share interior area.
func (s *Scorer) overlaps(a, b model.Placement) bool {
	dx := a.LabelX - b.LabelX
	dy := a.Y - b.Y
	return abs(dx) < s.width && abs(dy) < s.height
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
