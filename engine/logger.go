package engine

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var nopLogger = zap.NewNop()

// Logger returns the logger engines use when Config.Logger is nil.
// It discards everything.
func Logger() *zap.Logger {
	return nopLogger
}

// debugf logs engine internals on l when its core has debug enabled.
func debugf(l *zap.Logger, format string, args ...any) {
	if l.Core().Enabled(zapcore.DebugLevel) {
		l.Sugar().Debugf(format, args...)
	}
}
