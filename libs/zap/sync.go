package zap

import (
	"fmt"
	"os"
)

type Logger interface {
	Sync() error
}

// Sync returns a function flushing logger, to register with a closer.
func Sync(logger Logger) func() {
	return func() {
		if err := logger.Sync(); err != nil {
			// nowhere left to log to
			fmt.Fprintf(os.Stderr, "couldn't flush the logger: %v\n", err)
		}
	}
}
