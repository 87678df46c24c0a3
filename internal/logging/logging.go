// Package logging builds the colored slog loggers used by the CLI and the server.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MatusOllah/slogcolor"
	"github.com/fatih/color"
)

// ParseLevel maps a level name to a slog.Level. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", name)
	}
}

// New returns a logger writing colored lines to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	opts := *slogcolor.DefaultOptions
	opts.Level = level
	opts.MsgColor = color.New(color.FgMagenta)
	opts.SrcFileMode = slogcolor.Nop
	return slog.New(slogcolor.NewHandler(w, &opts))
}

// NewPlain returns a logger without color codes, for output that is not a terminal.
func NewPlain(w io.Writer, level slog.Level) *slog.Logger {
	opts := *slogcolor.DefaultOptions
	opts.Level = level
	opts.NoColor = true
	opts.SrcFileMode = slogcolor.Nop
	return slog.New(slogcolor.NewHandler(w, &opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
