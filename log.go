package fontastic

import (
	"context"
	"log/slog"
)

// nopHandler discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// debug logs at debug level, but only when debugging is enabled for the font.
func (f *Font) debug(msg string, args ...any) {
	if f.opts.Debug {
		f.logger.Debug(msg, args...)
	}
}

func (f *Font) warn(err error) {
	switch e := err.(type) {
	case *PackageError:
		f.logger.Warn(e.Kind.Error(), "path", e.Path, "error", e.Err)
	default:
		f.logger.Warn(err.Error())
	}
}
