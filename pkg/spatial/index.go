// Package spatial finds the labels whose slide bands can reach each other.
package spatial

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"sliderlabel/pkg/anneal"
)

type entry struct {
	h anneal.Handle
	p orb.Point
}

// Point implements orb.Pointer.
func (e *entry) Point() orb.Point { return e.p }

// SliderIndex is a quadtree over label anchors. A label of width W slides
// over [x-W, x+W) and is H tall, so two labels can only meet when their anchors
// are less than 2W apart horizontally and less than H apart vertically.
//
// Inserts are buffered; the tree is built with a bound covering every anchor on
// the first query and rebuilt after later inserts.
type SliderIndex struct {
	width, height int

	entries  []*entry
	byHandle map[anneal.Handle]*entry
	tree     *quadtree.Quadtree
	buf      []orb.Pointer
}

// NewSliderIndex creates an index for labels of the given size.
func NewSliderIndex(width, height int) *SliderIndex {
	return &SliderIndex{
		width:    width,
		height:   height,
		byHandle: make(map[anneal.Handle]*entry),
	}
}

// Insert implements anneal.Index.
func (s *SliderIndex) Insert(h anneal.Handle, anchor anneal.Point) {
	e := &entry{h: h, p: orb.Point{float64(anchor.X), float64(anchor.Y)}}
	s.entries = append(s.entries, e)
	s.byHandle[h] = e
	s.tree = nil
}

// Len returns the number of inserted anchors.
func (s *SliderIndex) Len() int { return len(s.entries) }

func (s *SliderIndex) build() {
	bound := s.entries[0].p.Bound()
	for _, e := range s.entries[1:] {
		bound = bound.Extend(e.p)
	}
	s.tree = quadtree.New(bound.Pad(1))
	for _, e := range s.entries {
		if err := s.tree.Add(e); err != nil {
			// the bound was grown from these very anchors
			panic(fmt.Sprintf("spatial: anchor %v outside index bound: %v", e.p, err))
		}
	}
}

// Neighbors implements anneal.Index. Handles come back in ascending order.
func (s *SliderIndex) Neighbors(h anneal.Handle) []anneal.Handle {
	self, ok := s.byHandle[h]
	if !ok {
		return nil
	}
	if s.tree == nil {
		s.build()
	}

	reachX, reachY := float64(2*s.width), float64(s.height)
	reach := orb.Bound{
		Min: orb.Point{self.p[0] - reachX, self.p[1] - reachY},
		Max: orb.Point{self.p[0] + reachX, self.p[1] + reachY},
	}

	s.buf = s.tree.InBound(s.buf[:0], reach)
	out := make([]anneal.Handle, 0, len(s.buf))
	for _, ptr := range s.buf {
		e := ptr.(*entry)
		if e.h == h {
			continue
		}
		// InBound is inclusive; anchors exactly at the reach only touch.
		if abs(e.p[0]-self.p[0]) >= reachX || abs(e.p[1]-self.p[1]) >= reachY {
			continue
		}
		out = append(out, e.h)
	}
	slices.Sort(out)
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
