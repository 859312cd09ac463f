// Package labels runs sliding-label placements and keeps their history.
package labels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"sliderlabel/pkg/anneal"
	"sliderlabel/pkg/config"
	"sliderlabel/pkg/logging"
	"sliderlabel/pkg/model"
	"sliderlabel/pkg/spatial"
	"sliderlabel/pkg/store"
)

// ErrRunNotFound is returned by Get for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// Request describes one placement run. Zero values fall back to the config.
type Request struct {
	Points []model.Point `json:"points"`
	Width  int           `json:"width,omitempty"`
	Height int           `json:"height,omitempty"`
	Seed   uint64        `json:"seed,omitempty"`

	// OnStage observes every stage advance.
	OnStage func(anneal.StageReport) `json:"-"`
}

// Manager coordinates placement runs.
type Manager struct {
	store store.RunStore
	cfg   *config.Config
	now   func() time.Time
}

// NewManager creates a new Label Manager. A nil store disables persistence.
func NewManager(s store.RunStore, cfg *config.Config) *Manager {
	return &Manager{
		store: s,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Place anneals the request's points and records the run.
//
// Hitting the configured max runtime is not an error: the run ends with
// outcome "cancelled" and whatever labeling was reached. When ctx itself ends,
// the partial run is returned together with ctx's error.
func (m *Manager) Place(ctx context.Context, req Request) (*model.Run, error) {
	cfg := anneal.Config{Width: req.Width, Height: req.Height}
	if cfg.Width == 0 {
		cfg.Width = m.cfg.Label.Width
	}
	if cfg.Height == 0 {
		cfg.Height = m.cfg.Label.Height
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(req.Points) == 0 {
		return nil, anneal.ErrEmptyInput
	}

	policy, err := m.policyFor(len(req.Points))
	if err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = m.cfg.Anneal.Seed
	}
	if seed == 0 {
		seed = rand.Uint64()
	}

	runCtx := ctx
	if limit := m.cfg.Anneal.MaxRuntime.Std(); limit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	id := uuid.New().String()
	logger := slog.With("run", id)

	points := make([]anneal.Point, len(req.Points))
	for i, p := range req.Points {
		points[i] = anneal.Point{X: p.X, Y: p.Y}
	}

	start := m.now()
	res, err := anneal.Place(runCtx, points, cfg, spatial.NewSliderIndex(cfg.Width, cfg.Height), anneal.Options{
		Policy:  &policy,
		Rand:    anneal.NewRand(seed),
		Logger:  logger,
		OnStage: req.OnStage,
	})
	if res == nil {
		return nil, err
	}
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("Placement hit max runtime", "limit", m.cfg.Anneal.MaxRuntime.Std())
		err = nil
	}

	run := &model.Run{
		ID:           id,
		CreatedAt:    start.UTC(),
		Width:        cfg.Width,
		Height:       cfg.Height,
		Seed:         seed,
		Policy:       res.Policy,
		Outcome:      res.Outcome.String(),
		Iterations:   res.Iterations,
		Stages:       res.Stages,
		Removed:      res.Removed,
		OverallForce: res.OverallForce,
		Placements:   make([]model.Placement, len(res.Placements)),
	}
	for i, p := range res.Placements {
		run.Placements[i] = model.Placement{
			Index:  i,
			Name:   req.Points[i].Name,
			X:      p.Point.X,
			Y:      p.Point.Y,
			LabelX: p.X,
			Placed: p.Placed,
		}
	}

	q := NewScorer(cfg.Width, cfg.Height).Score(run.Placements)
	run.LabeledRatio = q.LabeledRatio
	run.Overlaps = q.Overlaps

	if m.store != nil {
		// Saved even when ctx has ended.
		if serr := m.store.SaveRun(context.WithoutCancel(ctx), run); serr != nil {
			return run, fmt.Errorf("failed to save run: %w", serr)
		}
	}

	logging.RunLogger.Info("Run finished",
		"run", run.ID,
		"points", len(run.Placements),
		"policy", run.Policy,
		"seed", run.Seed,
		"outcome", run.Outcome,
		"stages", run.Stages,
		"iterations", run.Iterations,
		"removed", run.Removed,
		"labeled_ratio", run.LabeledRatio,
		"overlaps", run.Overlaps,
		"duration", m.now().Sub(start),
	)
	return run, err
}

// policyFor picks the size preset and applies the configured overrides.
func (m *Manager) policyFor(n int) (anneal.Policy, error) {
	a := m.cfg.Anneal
	policy := anneal.PolicyFor(n, anneal.Thresholds{SmallMax: a.SmallInstanceMax, HugeMin: a.HugeInstanceMin})
	// The small preset always assumes a fixed share.
	if policy.Name != anneal.SmallInstancePolicy().Name {
		f, err := anneal.OverlapFractionByName(a.OverlapFraction)
		if err != nil {
			return anneal.Policy{}, fmt.Errorf("%w: %v", anneal.ErrInvalidConfiguration, err)
		}
		policy.OverlapFraction = f
	}
	policy.MaxIterations = a.MaxIterations
	return policy, nil
}

// Get loads a stored run.
func (m *Manager) Get(ctx context.Context, id string) (*model.Run, error) {
	if m.store == nil {
		return nil, ErrRunNotFound
	}
	run, err := m.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// List returns summaries of the most recent runs.
func (m *Manager) List(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.ListRuns(ctx, limit)
}
