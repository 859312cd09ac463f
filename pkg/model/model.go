package model

import (
	"time"
)

// Point is an input point to be labeled.
type Point struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Name string `json:"name,omitempty"`
}

// Placement is the labeling outcome for one input point.
type Placement struct {
	Index  int    `json:"index"` // position in the input
	Name   string `json:"name,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	LabelX int    `json:"label_x"` // left edge of the label; meaningless when not placed
	Placed bool   `json:"placed"`
}

// Rect returns the label rectangle as min and max corners. The label sits
// on the point's baseline and extends upward by height.
func (p Placement) Rect(width, height int) (minX, minY, maxX, maxY int) {
	return p.LabelX, p.Y, p.LabelX + width, p.Y + height
}

// Run is one finished placement run.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Inputs
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Seed   uint64 `json:"seed"`
	Policy string `json:"policy"`

	// Annealing outcome
	Outcome      string  `json:"outcome"`
	Iterations   int     `json:"iterations"`
	Stages       int     `json:"stages"`
	Removed      int     `json:"removed"`
	OverallForce float64 `json:"overall_force"`

	// Quality
	LabeledRatio float64 `json:"labeled_ratio"`
	Overlaps     int     `json:"overlaps"` // overlapping pairs among placed labels

	Placements []Placement `json:"placements,omitempty"`
}

// Placed returns the number of labeled points.
func (r *Run) Placed() int {
	n := 0
	for _, p := range r.Placements {
		if p.Placed {
			n++
		}
	}
	return n
}

// RunSummary is a stored run without its placements.
type RunSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Points       int       `json:"points"`
	Removed      int       `json:"removed"`
	Outcome      string    `json:"outcome"`
	LabeledRatio float64   `json:"labeled_ratio"`
}
