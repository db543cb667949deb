// Package logging builds the slog logger every component receives.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a text-handler logger at the configured level. Unknown
// level strings fall back to info so a typo never silences the service.
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
