package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{
			Name:     "Success Probe",
			Check:    func(ctx context.Context) error { return nil },
			Critical: true,
		},
		{
			Name:  "Failure Probe (Non-Critical)",
			Check: func(ctx context.Context) error { return errors.New("minor issue") },
		},
		{
			Name:    "Slow Probe",
			Timeout: 10 * time.Millisecond,
			Check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
	}

	results := Run(context.Background(), probes)

	require.Len(t, results, 3)
	assert.Equal(t, "Success Probe", results[0].Probe.Name, "order is kept")
	assert.NoError(t, results[0].Error)
	assert.Error(t, results[1].Error)
	assert.ErrorIs(t, results[2].Error, context.DeadlineExceeded)
}

func TestAnalyzeResults(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		wantErr bool
	}{
		{
			name: "All Pass",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: true}},
				{Probe: Probe{Name: "P2", Critical: false}},
			},
		},
		{
			name: "Non-Critical Fail",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: true}},
				{Probe: Probe{Name: "P2", Critical: false}, Error: errors.New("fail")},
			},
		},
		{
			name: "Critical Fail",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: true}, Error: errors.New("fatal")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalyzeResults(tt.results)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WritableDir(dir)(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestPing(t *testing.T) {
	assert.NoError(t, Ping(fakePinger{})(context.Background()))
	assert.Error(t, Ping(fakePinger{err: errors.New("down")})(context.Background()))
}
