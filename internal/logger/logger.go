package logger

import (
	"log"

	"go.uber.org/zap"
)

// L is the application-wide logger. Init must run before first use;
// the default is a no-op logger so tests need no setup.
var L = zap.NewNop()

// Init replaces the no-op logger with a production zap logger.
func Init() {
	l, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	L = l
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = L.Sync()
}
