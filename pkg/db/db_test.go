package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sliderlabel/pkg/db"
)

func TestDB(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	defer d.Close()

	// Migrations are idempotent
	d2, err := db.Init(filepath.Join(tempDir, "db_test.db"))
	if err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	d2.Close()
}

func TestPruneRuns(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "prune.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	ctx := context.Background()
	old := time.Now().Add(-40 * 24 * time.Hour).UTC()
	if _, err := d.Exec("INSERT INTO runs (id, created_at) VALUES ('old', ?), ('new', ?)", old, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec("INSERT INTO placements (run_id, idx, placed) VALUES ('old', 0, 1)"); err != nil {
		t.Fatal(err)
	}

	n, err := d.PruneRuns(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("PruneRuns failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d runs, want 1", n)
	}

	var left int
	if err := d.QueryRow("SELECT count(*) FROM placements").Scan(&left); err != nil {
		t.Fatal(err)
	}
	if left != 0 {
		t.Errorf("%d placements survived their run", left)
	}
}
