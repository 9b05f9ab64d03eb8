package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. JSON output so log aggregation can key on
// attributes like request_id, user_id and log_type=audit.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
