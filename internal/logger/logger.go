package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the service logger: JSON on stdout, debug level in dev.
func New(env string) *slog.Logger {
	return NewJSON(os.Stdout, env)
}

// NewJSON is New with an explicit writer.
func NewJSON(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// NewText returns a human-readable logger for command-line use. Only
// warnings are shown unless verbose is set.
func NewText(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
