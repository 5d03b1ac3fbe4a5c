// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record; Enabled returns false so callers skip
// formatting a message that will never be printed.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger used by the graph package and everything
// under it (connectors, nodes, the driver). By default nothing is logged.
// Pass nil to restore the silent default. Safe for concurrent use.
//
// Levels used here:
//   - Debug: a build is starting
//   - Info: a build completed, rebind of an already-connected input,
//     the watched layout file changed on disk
//   - Warn: a node hook failed and the node was disabled; an unknown
//     connection was skipped on load; a layout-watcher error; the
//     rebuild layout snapshot could not be copied
//   - Error: a build-aborting error (cycle, validation failure,
//     allocation failure)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the logger currently in effect.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
