package anneal

import "log/slog"

// EnableTrace turns on per-move logging of the annealing loop.
// Default is false: a run performs millions of moves.
var EnableTrace = false

// trace logs a message at DEBUG level, but only if EnableTrace is true.
func trace(logger *slog.Logger, msg string, args ...any) {
	if EnableTrace {
		logger.Debug(msg, args...)
	}
}
