package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// logHandler writes library log records to the Error, Warning, and Verbose loggers.
type logHandler struct {
	level slog.Level
	attrs []slog.Attr
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(&logHandler{level: level})
}

func (h *logHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.level <= level
}

func (h *logHandler) Handle(_ context.Context, r slog.Record) error {
	sb := &strings.Builder{}
	sb.WriteString(r.Message)
	for _, attr := range h.attrs {
		fmt.Fprintf(sb, " %s=%v", attr.Key, attr.Value)
	}
	r.Attrs(func(attr slog.Attr) bool {
		fmt.Fprintf(sb, " %s=%v", attr.Key, attr.Value)
		return true
	})

	switch {
	case slog.LevelError <= r.Level:
		Error.Println(sb.String())
	case slog.LevelWarn <= r.Level:
		Warning.Println(sb.String())
	default:
		Verbose.Println(sb.String())
	}
	return nil
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &logHandler{
		level: h.level,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *logHandler) WithGroup(string) slog.Handler {
	return h
}
