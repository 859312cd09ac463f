package anneal

import (
	"fmt"
	"math"
)

// updateForces recomputes the pairs between h and its live neighbors from
// current positions. Only those labels' totals and their share of the overall
// force change.
func (e *Engine) updateForces(h Handle) {
	l := &e.labels[h]
	e.overallForce -= math.Abs(l.total)
	l.total = 0

	for i := range l.edges {
		ed := &l.edges[i]
		o := &e.labels[ed.other]
		if o.removed {
			continue
		}
		rev := &o.edges[ed.back]

		e.overallForce -= math.Abs(o.total)
		o.total -= rev.force

		f := e.model.Force(l.x, o.x, rev.force, true)
		ed.force = f
		rev.force = -f
		l.total += f
		o.total -= f

		e.overallForce += math.Abs(o.total)
	}

	e.overallForce += math.Abs(l.total)
}

// snapshot holds everything a move of one label can change. Ties make
// updateForces depend on the forces recorded before it, so a rejected move is
// undone by writing these values back, never by recomputing.
type snapshot struct {
	x       int
	total   float64
	overall float64
	forces  []float64 // per edge of the moved label
	totals  []float64 // per neighbor, in edge order
}

func (e *Engine) save(h Handle) {
	l := &e.labels[h]
	s := &e.snap
	s.x, s.total, s.overall = l.x, l.total, e.overallForce
	s.forces, s.totals = s.forces[:0], s.totals[:0]
	for _, ed := range l.edges {
		s.forces = append(s.forces, ed.force)
		s.totals = append(s.totals, e.labels[ed.other].total)
	}
}

func (e *Engine) restore(h Handle) {
	l := &e.labels[h]
	s := &e.snap
	l.x, l.total, e.overallForce = s.x, s.total, s.overall
	for i := range l.edges {
		ed := &l.edges[i]
		o := &e.labels[ed.other]
		ed.force = s.forces[i]
		o.edges[ed.back].force = -s.forces[i]
		o.total = s.totals[i]
	}
}

// overlapping reports whether h currently intersects a live neighbor.
func (e *Engine) overlapping(h Handle) bool {
	return e.overlapCount(h) > 0
}

func (e *Engine) overlapCount(h Handle) int {
	l := &e.labels[h]
	n := 0
	for _, ed := range l.edges {
		o := &e.labels[ed.other]
		if !o.removed && e.model.Overlaps(l.x, o.x) {
			n++
		}
	}
	return n
}

// canSlide reports whether h feels a non-negligible force and has room to
// move the way it is pushed.
func (e *Engine) canSlide(h Handle) bool {
	l := &e.labels[h]
	if l.removed || math.Abs(l.total) < MinForce {
		return false
	}
	if l.total > 0 {
		return l.x < l.maxX()
	}
	return l.x > l.minX(e.cfg.Width)
}

func (e *Engine) isObstructed(h Handle) bool {
	if e.labels[h].removed {
		return false
	}
	return e.overlapping(h) || e.canSlide(h)
}

// findEquilibrium slides h toward its force with a shrinking step, halving the
// step and turning around every time the force changes sign.
func (e *Engine) findEquilibrium(h Handle) {
	l := &e.labels[h]
	if math.Abs(l.total) < MinForce {
		return
	}

	var travel, dir int
	if l.total > 0 {
		travel = l.maxX() - l.x
		dir = 1
	} else {
		travel = l.x - l.minX(e.cfg.Width)
		dir = -1
	}

	step := int(math.Ceil(float64(travel) * equilibriumStepRatio))
	for i := 0; i < equilibriumIterations && math.Abs(l.total) >= MinForce && step > 0; i++ {
		l.x += dir * step
		l.clamp(e.cfg.Width)
		e.updateForces(h)

		next := -1
		if l.total > 0 {
			next = 1
		}
		if next != dir {
			dir = next
			step /= 2
		}
	}
}

// randomPlace moves h to a uniformly chosen position of its band.
func (e *Engine) randomPlace(h Handle) {
	l := &e.labels[h]
	l.x = l.minX(e.cfg.Width) + e.rng.IntN(e.cfg.Width)
	e.updateForces(h)
}

// remove drops h for good and zeroes every pair it took part in.
func (e *Engine) remove(h Handle) {
	l := &e.labels[h]
	l.removed = true
	e.obstructed.Remove(h)
	e.removed++

	e.overallForce -= math.Abs(l.total)
	l.total = 0

	for i := range l.edges {
		ed := &l.edges[i]
		o := &e.labels[ed.other]
		rev := &o.edges[ed.back]
		if !o.removed {
			e.overallForce -= math.Abs(o.total)
			o.total -= rev.force
			e.overallForce += math.Abs(o.total)
		}
		rev.force = 0
		ed.force = 0
		e.obstructed.Set(ed.other, e.isObstructed(ed.other))
	}
}

// CheckInvariants verifies the force bookkeeping: every total matches its
// pair forces, the overall force matches the totals, removed labels hold no
// force and stay out of the worklist, and the worklist holds exactly the
// obstructed labels.
func (e *Engine) CheckInvariants() error {
	var overall float64
	for i := range e.labels {
		h := Handle(i)
		l := &e.labels[i]
		if l.removed {
			if l.total != 0 {
				return fmt.Errorf("removed label %d holds force %g", i, l.total)
			}
			if e.obstructed.Contains(h) {
				return fmt.Errorf("removed label %d is in the obstructed set", i)
			}
			continue
		}

		var sum, scale float64
		for _, ed := range l.edges {
			sum += ed.force
			scale += math.Abs(ed.force)
			if back := e.labels[ed.other].edges[ed.back]; back.other != h || back.force != -ed.force {
				return fmt.Errorf("pair %d-%d is not antisymmetric", i, ed.other)
			}
		}
		if math.Abs(sum-l.total) > tolerance(scale) {
			return fmt.Errorf("label %d total %g differs from pair sum %g", i, l.total, sum)
		}
		if e.obstructed.Contains(h) != e.isObstructed(h) {
			return fmt.Errorf("label %d worklist membership is stale", i)
		}
		overall += math.Abs(l.total)
	}
	if math.Abs(overall-e.overallForce) > tolerance(overall) {
		return fmt.Errorf("overall force %g differs from label sum %g", e.overallForce, overall)
	}
	return nil
}

func tolerance(scale float64) float64 {
	return 1e-6 * math.Max(1, scale)
}
