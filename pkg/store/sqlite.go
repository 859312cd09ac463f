package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sliderlabel/pkg/db"
	"sliderlabel/pkg/model"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun writes the run and its placements in one transaction.
// Saving an existing run ID replaces it.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, created_at, width, height, seed, policy, outcome, points, removed, stages, iterations, overall_force, labeled_ratio, overlaps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC(), run.Width, run.Height, int64(run.Seed), run.Policy, run.Outcome,
		len(run.Placements), run.Removed, run.Stages, run.Iterations, run.OverallForce,
		run.LabeledRatio, run.Overlaps,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM placements WHERE run_id = ?", run.ID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO placements (run_id, idx, name, x, y, label_x, placed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range run.Placements {
		if _, err := stmt.ExecContext(ctx, run.ID, p.Index, p.Name, p.X, p.Y, p.LabelX, p.Placed); err != nil {
			return fmt.Errorf("insert placement %d: %w", p.Index, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, width, height, seed, policy, outcome, removed, stages, iterations, overall_force, labeled_ratio, overlaps
		FROM runs WHERE id = ?`, id)

	var r model.Run
	var seed int64
	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.Width, &r.Height, &seed, &r.Policy, &r.Outcome,
		&r.Removed, &r.Stages, &r.Iterations, &r.OverallForce,
		&r.LabeledRatio, &r.Overlaps,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	r.Seed = uint64(seed)

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, name, x, y, label_x, placed
		FROM placements WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Placement
		var name sql.NullString
		if err := rows.Scan(&p.Index, &name, &p.X, &p.Y, &p.LabelX, &p.Placed); err != nil {
			return nil, err
		}
		p.Name = name.String
		r.Placements = append(r.Placements, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, points, removed, outcome, labeled_ratio
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var rs model.RunSummary
		if err := rows.Scan(&rs.ID, &rs.CreatedAt, &rs.Points, &rs.Removed, &rs.Outcome, &rs.LabeledRatio); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}
