package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls handler selection.
type Options struct {
	Level      string
	JSON       bool
	Output     io.Writer
	AddSource  bool
	StaticKeys []any
}

// New returns a structured logger. JSON output is used in production so log
// shippers can index request_id and tenant_id.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     ParseLevel(opts.Level),
		AddSource: opts.AddSource,
	}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, handlerOpts)
	} else {
		h = slog.NewTextHandler(out, handlerOpts)
	}
	l := slog.New(h)
	if len(opts.StaticKeys) > 0 {
		l = l.With(opts.StaticKeys...)
	}
	return l
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

// Discard is a logger for tests and optional dependencies.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RedactEmail keeps the first character of the local part and the domain.
func RedactEmail(address string) string {
	at := strings.LastIndex(address, "@")
	if at <= 0 {
		return "***"
	}
	return address[:1] + "***" + address[at:]
}
