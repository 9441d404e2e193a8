package app

import (
	"context"
	"log/slog"
	"sync/atomic"

	"mesh-warp/internal/mesh"
	"mesh-warp/internal/warp"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger for the session and the mesh and warp
// packages. By default nothing is logged. Pass nil to restore that.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
	mesh.SetLogger(l)
	warp.SetLogger(l)
}

func logger() *slog.Logger {
	return loggerPtr.Load()
}
