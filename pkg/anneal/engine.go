// Package anneal places sliding labels with a force-directed model annealed by
// simulated annealing.
//
// Every point owns one label that slides horizontally along a band of fixed
// width anchored at the point. Overlapping labels repel each other; the engine
// perturbs obstructed labels, accepts or rejects each move with the Metropolis
// rule and, when a stage makes no progress, permanently drops the label with
// the most conflicts.
package anneal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
)

var (
	// ErrInvalidConfiguration is returned for non-positive label dimensions or a missing index.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrEmptyInput is returned when there are no points to label.
	ErrEmptyInput = errors.New("empty input")
)

// Equilibrium search limits.
const (
	equilibriumIterations = 20
	equilibriumStepRatio  = 0.2
)

// Config holds the label geometry shared by every label.
type Config struct {
	Width  int // band width of every label
	Height int // label height, used for the initial temperature and neighbor search
}

// Validate rejects non-positive dimensions.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: label size %dx%d", ErrInvalidConfiguration, c.Width, c.Height)
	}
	return nil
}

// Index enumerates the labels whose bands can possibly overlap a given label.
// It is queried once per label while the engine is built.
type Index interface {
	Insert(h Handle, anchor Point)
	Neighbors(h Handle) []Handle
}

// Rand is the random source driving candidate choice, re-placement and the
// acceptance draw. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a PCG-backed source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Options tune an engine. The zero value is usable.
type Options struct {
	// Policy defaults to PolicyFor(len(points), DefaultThresholds).
	Policy *Policy
	// Rand defaults to a randomly seeded PCG source.
	Rand   Rand
	Logger *slog.Logger
	// OnStage is called after every completed stage advance.
	OnStage func(StageReport)
}

// Outcome tells why a run stopped.
type Outcome int

const (
	// Converged means the obstructed set emptied.
	Converged Outcome = iota
	// Exhausted means a stage boundary found no overlapping label left to remove.
	Exhausted
	// IterationLimit means the policy's iteration cap was hit.
	IterationLimit
	// Cancelled means the context ended the run.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	case IterationLimit:
		return "iteration_limit"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// StageReport describes one stage boundary.
type StageReport struct {
	Stage         int     `json:"stage"`
	Iteration     int     `json:"iteration"`
	Temperature   float64 `json:"temperature"`
	MovesPerStage int     `json:"moves_per_stage"`
	Obstructed    int     `json:"obstructed"`
	OverallForce  float64 `json:"overall_force"`
	Accepted      int     `json:"accepted"`
	Rejected      int     `json:"rejected"`
	Insignificant int     `json:"insignificant"`
	Removed       int     `json:"removed"` // point index, -1 when nothing was removed
}

// Placement is the outcome for one input point.
type Placement struct {
	Point  Point `json:"point"`
	X      int   `json:"x"` // left edge of the label band; 0 when not placed
	Placed bool  `json:"placed"`
}

// Result is the final state of a run, in input order.
type Result struct {
	Placements   []Placement
	Outcome      Outcome
	Iterations   int
	Stages       int
	Removed      int
	OverallForce float64
	Temperature  float64
	Policy       string
}

// Engine anneals one labeling problem. It is not safe for concurrent use.
type Engine struct {
	cfg     Config
	model   ForceModel
	policy  Policy
	rng     Rand
	logger  *slog.Logger
	onStage func(StageReport)

	labels     []label
	obstructed *worklist
	snap       snapshot

	overallForce  float64
	temperature   float64
	coolingRate   float64
	movesPerStage int

	accepted      int
	rejected      int
	insignificant int

	stages     int
	iterations int
	removed    int
}

// New places every label at a random position along its band, builds the
// neighbor graph from idx and derives the initial temperature schedule.
func New(points []Point, cfg Config, idx Index, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, fmt.Errorf("%w: nil spatial index", ErrInvalidConfiguration)
	}
	if len(points) == 0 {
		return nil, ErrEmptyInput
	}

	e := &Engine{
		cfg:     cfg,
		model:   ForceModel{Width: cfg.Width},
		rng:     opts.Rand,
		logger:  opts.Logger,
		onStage: opts.OnStage,
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if opts.Policy != nil {
		e.policy = *opts.Policy
	} else {
		e.policy = PolicyFor(len(points), DefaultThresholds)
	}
	if e.policy.OverlapFraction == nil {
		e.policy.OverlapFraction = FixedFraction(DefaultOverlapFraction)
	}
	if e.policy.InitialMoves == nil {
		e.policy.InitialMoves = thirtyPerPoint
	}

	e.labels = make([]label, len(points))
	for i, p := range points {
		e.labels[i] = label{anchor: p, x: p.X - cfg.Width + e.rng.IntN(cfg.Width)}
		idx.Insert(Handle(i), p)
	}
	e.link(idx)
	e.initForces()

	e.obstructed = newWorklist(len(e.labels))
	for h := range e.labels {
		if e.isObstructed(Handle(h)) {
			e.obstructed.Add(Handle(h))
		}
	}

	fraction := e.policy.OverlapFraction(e.obstructed.Len(), len(points))
	e.temperature = InitialTemperature(cfg.Width, cfg.Height, fraction)
	e.coolingRate = CoolingRate(e.temperature)
	e.movesPerStage = max(1, e.policy.InitialMoves(len(points)))

	e.logger.Debug("Annealing engine ready",
		"points", len(points),
		"policy", e.policy.Name,
		"obstructed", e.obstructed.Len(),
		"temperature", e.temperature,
		"cooling_rate", e.coolingRate,
		"moves_per_stage", e.movesPerStage,
	)
	return e, nil
}

// link builds the symmetric neighbor graph, tolerating indexes that report a
// pair from one side only or more than once.
func (e *Engine) link(idx Index) {
	mark := make([]int, len(e.labels))
	for i := range e.labels {
		h := Handle(i)
		stamp := i + 1
		for _, ed := range e.labels[h].edges {
			mark[ed.other] = stamp
		}
		for _, o := range idx.Neighbors(h) {
			if o == h || o < 0 || int(o) >= len(e.labels) || mark[o] == stamp {
				continue
			}
			mark[o] = stamp
			a, b := &e.labels[h], &e.labels[o]
			a.edges = append(a.edges, edge{other: o, back: len(b.edges)})
			b.edges = append(b.edges, edge{other: h, back: len(a.edges) - 1})
		}
	}
}

// initForces computes every pair once, the earlier label taking the role of a.
func (e *Engine) initForces() {
	for i := range e.labels {
		a := &e.labels[i]
		for j := range a.edges {
			ed := &a.edges[j]
			if int(ed.other) < i {
				continue
			}
			b := &e.labels[ed.other]
			f := e.model.OverlapForce(a.x, b.x)
			ed.force = f
			b.edges[ed.back].force = -f
			a.total += f
			b.total -= f
		}
	}
	for i := range e.labels {
		e.overallForce += math.Abs(e.labels[i].total)
	}
}

// Run anneals until the obstructed set empties, a stage boundary finds nothing
// to remove, the iteration cap is reached or ctx is done. On cancellation the
// partial result is returned together with the context error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	outcome := Converged
	for e.obstructed.Len() > 0 {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("Annealing cancelled", "iteration", e.iterations, "error", err)
			return e.result(Cancelled), err
		}
		if limit := e.policy.MaxIterations; limit > 0 && e.iterations >= limit {
			outcome = IterationLimit
			break
		}

		e.iterations++
		e.step()

		if e.accepted+e.rejected >= e.movesPerStage {
			if !e.advanceStage() {
				outcome = Exhausted
				break
			}
		}
	}

	e.logger.Debug("Annealing finished",
		"outcome", outcome,
		"iterations", e.iterations,
		"stages", e.stages,
		"removed", e.removed,
		"overall_force", e.overallForce,
	)
	return e.result(outcome), nil
}

// step performs one perturbation of a random obstructed label.
func (e *Engine) step() {
	h := e.obstructed.Pick(e.rng)
	l := &e.labels[h]
	oldForce := e.overallForce
	e.save(h)

	if e.canSlide(h) {
		e.findEquilibrium(h)
		if e.canSlide(h) {
			e.randomPlace(h)
		}
	} else {
		e.randomPlace(h)
	}

	dE := e.overallForce - oldForce
	if dE > 0 && e.rng.Float64() > math.Exp(-dE/e.temperature) {
		e.restore(h)
		e.rejected++
		trace(e.logger, "Move rejected", "label", h, "dE", dE)
	} else {
		e.accepted++
		if math.Abs(dE) < MinForce {
			e.insignificant++
		}
		trace(e.logger, "Move accepted", "label", h, "x", l.x, "dE", dE)
	}
	e.refresh(h)
}

// refresh re-evaluates worklist membership of h and its live neighbors.
func (e *Engine) refresh(h Handle) {
	e.obstructed.Set(h, e.isObstructed(h))
	for _, ed := range e.labels[h].edges {
		if !e.labels[ed.other].removed {
			e.obstructed.Set(ed.other, e.isObstructed(ed.other))
		}
	}
}

// advanceStage cools the schedule and may drop the most conflicted label.
// It reports false when no obstructed label overlaps anything.
func (e *Engine) advanceStage() bool {
	candidate := Handle(-1)
	most := 0
	for _, h := range e.obstructed.items {
		if n := e.overlapCount(h); n > most {
			most = n
			candidate = h
		}
	}
	if candidate < 0 {
		return false
	}

	report := StageReport{
		Stage:         e.stages + 1,
		Iteration:     e.iterations,
		Accepted:      e.accepted,
		Rejected:      e.rejected,
		Insignificant: e.insignificant,
		Removed:       -1,
	}
	if e.accepted-e.insignificant <= 0 {
		e.remove(candidate)
		report.Removed = int(candidate)
	}

	e.temperature *= e.coolingRate
	e.movesPerStage = stageMoves(e.obstructed.Len(), len(e.labels))
	e.stages++
	e.accepted, e.rejected, e.insignificant = 0, 0, 0

	report.Temperature = e.temperature
	report.MovesPerStage = e.movesPerStage
	report.Obstructed = e.obstructed.Len()
	report.OverallForce = e.overallForce

	e.logger.Debug("Annealing stage advanced",
		"stage", report.Stage,
		"temperature", report.Temperature,
		"obstructed", report.Obstructed,
		"overall_force", report.OverallForce,
		"removed", report.Removed,
	)
	if e.onStage != nil {
		e.onStage(report)
	}
	return true
}

func (e *Engine) result(o Outcome) *Result {
	res := &Result{
		Placements:   make([]Placement, len(e.labels)),
		Outcome:      o,
		Iterations:   e.iterations,
		Stages:       e.stages,
		Removed:      e.removed,
		OverallForce: e.overallForce,
		Temperature:  e.temperature,
		Policy:       e.policy.Name,
	}
	for i := range e.labels {
		l := &e.labels[i]
		res.Placements[i] = Placement{Point: l.anchor, Placed: !l.removed}
		if !l.removed {
			res.Placements[i].X = l.x
		}
	}
	return res
}

// Place builds an engine and runs it. An empty point list yields an empty
// result together with ErrEmptyInput.
func Place(ctx context.Context, points []Point, cfg Config, idx Index, opts Options) (*Result, error) {
	e, err := New(points, cfg, idx, opts)
	if errors.Is(err, ErrEmptyInput) {
		return &Result{Placements: []Placement{}}, err
	}
	if err != nil {
		return nil, err
	}
	return e.Run(ctx)
}

// Temperature returns the current temperature.
func (e *Engine) Temperature() float64 { return e.temperature }

// CoolingRate returns the per-stage temperature multiplier.
func (e *Engine) CoolingRate() float64 { return e.coolingRate }

// MovesPerStage returns the current stage budget.
func (e *Engine) MovesPerStage() int { return e.movesPerStage }

// Obstructed returns the size of the worklist.
func (e *Engine) Obstructed() int { return e.obstructed.Len() }

// OverallForce returns the sum of force magnitudes over live labels.
func (e *Engine) OverallForce() float64 { return e.overallForce }
