package anneal

import (
	"fmt"
	"math"
)

// Temperature schedule constants.
const (
	// AcceptanceProbability is the chance of accepting the expected overlap at the start.
	AcceptanceProbability = 0.3
	// CoolingStages is the number of stages after which the temperature drops below 1.
	CoolingStages = 15
	// DefaultOverlapFraction is the fixed share of a label assumed to overlap.
	DefaultOverlapFraction = 0.5
)

// OverlapFractionFunc estimates the expected overlapping share of a label from
// the initial obstructed count and the total point count.
type OverlapFractionFunc func(obstructed, points int) float64

// FixedFraction always returns f.
func FixedFraction(f float64) OverlapFractionFunc {
	return func(_, _ int) float64 { return f }
}

// ObstructedRatio is the share of initially obstructed labels.
func ObstructedRatio(obstructed, points int) float64 {
	if points == 0 {
		return 0
	}
	return float64(obstructed) / float64(points)
}

// TruncatedObstructedRatio divides as integers, which yields 0 unless every
// label starts obstructed.
func TruncatedObstructedRatio(obstructed, points int) float64 {
	if points == 0 {
		return 0
	}
	return float64(obstructed / points)
}

// Overlap-fraction strategy names accepted by OverlapFractionByName.
const (
	FractionFixed     = "fixed"
	FractionRatio     = "ratio"
	FractionTruncated = "truncated-ratio"
)

// OverlapFractionByName resolves a configured strategy name.
func OverlapFractionByName(name string) (OverlapFractionFunc, error) {
	switch name {
	case FractionFixed:
		return FixedFraction(DefaultOverlapFraction), nil
	case FractionRatio, "":
		return ObstructedRatio, nil
	case FractionTruncated:
		return TruncatedObstructedRatio, nil
	}
	return nil, fmt.Errorf("unknown overlap fraction strategy %q", name)
}

// Policy holds the size-dependent tuning of a run.
type Policy struct {
	Name            string
	OverlapFraction OverlapFractionFunc
	// InitialMoves returns moves per stage for the first stage.
	InitialMoves func(points int) int
	// MaxIterations caps the main loop; 0 means unlimited.
	MaxIterations int
}

func thirtyPerPoint(points int) int { return 30 * points }

// SmallInstancePolicy assumes half of every label overlaps.
func SmallInstancePolicy() Policy {
	return Policy{
		Name:            "small",
		OverlapFraction: FixedFraction(DefaultOverlapFraction),
		InitialMoves:    thirtyPerPoint,
	}
}

// LargeInstancePolicy derives the overlap fraction from the initial worklist.
func LargeInstancePolicy() Policy {
	return Policy{
		Name:            "large",
		OverlapFraction: ObstructedRatio,
		InitialMoves:    thirtyPerPoint,
	}
}

// HugeInstancePolicy derives the overlap fraction like the large preset and
// ends the first stage after a single move, so the moves-per-stage budget is
// sized from the real worklist right away.
func HugeInstancePolicy() Policy {
	return Policy{
		Name:            "huge",
		OverlapFraction: ObstructedRatio,
		InitialMoves:    func(int) int { return 1 },
	}
}

// Thresholds select a policy preset by point count.
type Thresholds struct {
	SmallMax int // up to and including: small policy
	HugeMin  int // from and including: huge policy; 0 disables
}

// DefaultThresholds mirrors the sizes the presets were tuned for.
var DefaultThresholds = Thresholds{SmallMax: 100, HugeMin: 10000}

// PolicyFor picks the preset for n points.
func PolicyFor(n int, t Thresholds) Policy {
	switch {
	case t.HugeMin > 0 && n >= t.HugeMin:
		return HugeInstancePolicy()
	case n <= t.SmallMax:
		return SmallInstancePolicy()
	default:
		return LargeInstancePolicy()
	}
}

// InitialTemperature accepts an overlap of overlapFraction of the label area
// with probability AcceptanceProbability.
func InitialTemperature(width, height int, overlapFraction float64) float64 {
	area := float64(width) * float64(height)
	t := area*overlapFraction*KOverlap + Penalty + KRepulsive/(Eps*Eps)
	return t / -math.Log(AcceptanceProbability)
}

// CoolingRate brings temperature below 1 after CoolingStages stages.
func CoolingRate(temperature float64) float64 {
	return math.Pow(1/temperature, 1.0/CoolingStages)
}

// stageMoves resizes the per-stage budget from the current worklist size.
func stageMoves(obstructed, points int) int {
	return max(points, min(50*obstructed, 10*points))
}
