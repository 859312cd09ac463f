package maintenance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sliderlabel/pkg/db"
)

func TestMaintenance(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "maint_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	old := time.Now().Add(-10 * 24 * time.Hour).UTC()
	if _, err := d.Exec("INSERT INTO runs (id, created_at) VALUES ('a', ?), ('b', ?)", old, old); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	Run(ctx, d, 0)
	if got := countRuns(t, d); got != 2 {
		t.Fatalf("zero retention deleted runs: %d left", got)
	}

	Run(ctx, d, 7*24*time.Hour)
	if got := countRuns(t, d); got != 0 {
		t.Errorf("expected all runs pruned, %d left", got)
	}
}

func countRuns(t *testing.T, d *db.DB) int {
	t.Helper()
	var n int
	if err := d.QueryRow("SELECT count(*) FROM runs").Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}
