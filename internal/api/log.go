package api

import (
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"sliderlabel/pkg/logging"
)

// maxParamLen drops attributes too long for a one-line status display
// (run IDs, file paths).
const maxParamLen = 20

// key=value or key="value with spaces"
var logRegex = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// handleLatestLog returns the last captured server log line.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	line := strings.TrimSpace(logging.GlobalLogCapture.GetLastLine())
	writeJSON(w, map[string]string{"log": formatLogLine(line)})
}

// formatLogLine renders a slog text line as "HH:MM:SS msg (k=v, ...)" with
// the level dropped, attributes sorted and long values removed. Lines that
// do not parse are returned unchanged.
func formatLogLine(raw string) string {
	var msg, clock string
	var params []string

	for _, m := range logRegex.FindAllStringSubmatch(raw, -1) {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				clock = t.Format("15:04:05")
			}
		case "level":
		case "msg":
			msg = val
		default:
			if len(val) <= maxParamLen {
				params = append(params, key+"="+val)
			}
		}
	}

	if msg == "" {
		if raw != "" {
			slog.Debug("Unparsed log line", "len", len(raw))
		}
		return raw
	}

	var b strings.Builder
	if clock != "" {
		b.WriteString(clock)
		b.WriteByte(' ')
	}
	b.WriteString(msg)
	if len(params) > 0 {
		slices.Sort(params)
		b.WriteString(" (")
		b.WriteString(strings.Join(params, ", "))
		b.WriteByte(')')
	}
	return b.String()
}
