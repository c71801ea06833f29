package dbscan

import "log/slog"

// logger receives the package's rare diagnostics (currently only warnings
// about infinite-weight spanning tree edges). Defaults to slog.Default.
var logger = slog.Default()

// SetLogger replaces the package logger. Passing nil restores the default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}
