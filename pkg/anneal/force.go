package anneal

// Force model constants.
const (
	KOverlap   = 10.0
	KRepulsive = 1.0 // only enters the initial temperature
	Eps        = 0.5
	Penalty    = 3 / (Eps * Eps)

	// MinForce is the magnitude below which a label counts as balanced.
	MinForce = 0.5
)

// ForceModel computes pairwise overlap forces between labels of a common width.
type ForceModel struct {
	Width int
}

// Overlaps reports whether bands starting at ax and bx intersect.
func (m ForceModel) Overlaps(ax, bx int) bool {
	return ax+m.Width > bx && bx+m.Width > ax
}

// Force returns the signed force exerted on the label at ax by the label at bx.
// Positive values push right. When the bands coincide exactly the result is
// the negation of recorded, the force the other label currently holds for this
// one, if known is set. Otherwise the push-right default is used.
func (m ForceModel) Force(ax, bx int, recorded float64, known bool) float64 {
	if !m.Overlaps(ax, bx) {
		return 0
	}
	switch {
	case ax > bx:
		return KOverlap*float64(bx+m.Width-ax) + Penalty
	case ax < bx:
		return -KOverlap*float64(ax+m.Width-bx) - Penalty
	}
	if known {
		return -recorded
	}
	return KOverlap*float64(bx+m.Width-ax) + Penalty
}

// OverlapForce is Force with no recorded reciprocal.
func (m ForceModel) OverlapForce(ax, bx int) float64 {
	return m.Force(ax, bx, 0, false)
}
