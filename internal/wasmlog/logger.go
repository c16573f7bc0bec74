// Package wasmlog centralizes the structured logger used across decode,
// validate, instantiate and interpret. It defaults to a no-op logger so the
// library stays silent unless a host explicitly wires one in.
package wasmlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package-wide logger, defaulting to a no-op one.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger replaces the package-wide logger. Call before instantiating or
// running any module if you want diagnostics.
func SetLogger(l *zap.Logger) {
	logger = l
}
