package config

import (
	"io"
	"log/slog"
)

// NewLogger returns the logger described by c. Its level is read from
// level, which is set from c.Level, so that reloads can change it.
func NewLogger(w io.Writer, c LogConfig, level *slog.LevelVar) *slog.Logger {
	if l, err := ParseLevel(c.Level); err == nil {
		level.Set(l)
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
