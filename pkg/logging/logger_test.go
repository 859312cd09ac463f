package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sliderlabel/pkg/anneal"
	"sliderlabel/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	runLog := filepath.Join(tempDir, "runs.log")

	// A previous log gets rotated away
	if err := os.WriteFile(runLog, []byte("old run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.LogConfig{
		Server: config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Runs:   config.LogSettings{Path: runLog, Level: "INFO"},
		Trace:  true,
	}

	prev := slog.Default()
	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer slog.SetDefault(prev)
	defer func() { anneal.EnableTrace = false }()

	if !anneal.EnableTrace {
		t.Error("log.trace did not enable move tracing")
	}

	RunLogger.Info("run finished", "id", "abc")
	slog.Info("server line")
	cleanup()

	if _, err := os.Stat(runLog + ".old"); err != nil {
		t.Errorf("previous run log not rotated: %v", err)
	}
	data, err := os.ReadFile(runLog)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(data), "id=abc") || strings.Contains(string(data), "old run") {
		t.Errorf("unexpected run log content: %q", data)
	}
	if !strings.Contains(GlobalLogCapture.GetLastLine(), "server line") {
		t.Errorf("capture missed the last line: %q", GlobalLogCapture.GetLastLine())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"Error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
