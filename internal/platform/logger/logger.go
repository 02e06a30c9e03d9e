package logger

import (
	"log/slog"
	"os"
)

// New returns a structured logger: JSON in production, text with debug level
// in development.
func New(env string) *slog.Logger {
	if env == "" || env == "development" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
