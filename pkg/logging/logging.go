// Package logging configures the process-wide slog logger.
//
// Setup replaces the slog default. The CLI calls it once, before running a
// command; until then the standard slog default is in effect.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Nop returns a logger that discards everything.
func Nop() *slog.Logger { return slog.New(nopHandler{}) }

// ParseLevel accepts debug, info, warn, error and off.
func ParseLevel(s string) (slog.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warn", "warning":
		return slog.LevelWarn, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "error":
		return slog.LevelError, true, nil
	case "off", "none", "silent":
		return 0, false, nil
	}
	return 0, false, errs.New(errs.InvalidArgument, "unknown log level %q", s)
}

// Setup installs a text or json handler writing to w as the default logger
// and returns it. Level "off" installs a discarding logger.
func Setup(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, enabled, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		l := Nop()
		slog.SetDefault(l)
		return l, nil
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, errs.New(errs.InvalidArgument, "unknown log format %q", format)
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l, nil
}
