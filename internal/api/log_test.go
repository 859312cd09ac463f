package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sliderlabel/pkg/logging"
)

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "StageLine",
			input: `time=2026-01-18T06:50:46.074+01:00 level=DEBUG msg="Annealing stage advanced" stage=3 temperature=41.2 obstructed=12 run=6f1c1f0e-6a7b-4a52-9c1e-1b2d4f0a9e11 removed=-1`,
			want:  "06:50:46 Annealing stage advanced (obstructed=12, removed=-1, stage=3, temperature=41.2)",
		},
		{
			name:  "NoAttributes",
			input: `time=2026-01-18T07:00:00Z level=INFO msg=Ready`,
			want:  "07:00:00 Ready",
		},
		{
			name:  "Unparsed",
			input: "plain text",
			want:  "plain text",
		},
		{
			name:  "Empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatLogLine(tt.input))
		})
	}
}

func TestHandleLatestLog(t *testing.T) {
	_, err := logging.GlobalLogCapture.Write([]byte("time=2026-01-18T07:00:00Z level=INFO msg=Ready port=1921\n"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handleLatestLog(rec, httptest.NewRequest(http.MethodGet, "/api/log/latest", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "07:00:00 Ready (port=1921)", body["log"])
}
