// SPDX-License-Identifier: Unlicense OR MIT

//go:build linux

package gpu

import (
	"log/slog"

	"gioui.org/vmdisplay/internal/log"
)

// SetLogger configures the logger for gpu and its backends. By default
// nothing is logged. A nil l restores the silent default. It is safe to
// call concurrently with logging.
//
// Levels used:
//   - [slog.LevelDebug]: context version attempts, fence waits
//   - [slog.LevelInfo]: backend and context version selection
//   - [slog.LevelWarn]: failed imports and exports the caller may work around
func SetLogger(l *slog.Logger) {
	log.Set(l)
}

// Logger returns the logger installed with SetLogger.
func Logger() *slog.Logger {
	return log.Get()
}
