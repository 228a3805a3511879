// Package logger provides the process-wide structured logger used by the
// boost services, repositories and HTTP handlers. It wraps zap's sugared
// logger behind a lazily initialized singleton so every component logs
// through one configured core.
package logger

import (
	"sync"
)

// Level names accepted from the service configuration (log.level).
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	instance *Logger
	initOnce sync.Once
)

// Get returns the shared logger, building it at the requested level on the
// first call. The level of later calls is ignored; the whole boost service
// shares one logger.
func Get(level string) *Logger {
	initOnce.Do(func() {
		instance = newZapLogger(level)
	})
	return instance
}
