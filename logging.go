package libdex

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// Logger is the structured logger interface the core uses for diagnostics
// that a caller might want to observe: recovered panics from work items,
// combinator callback panics, scheduler overload, and fiber thunk panics.
//
// Per the error-handling design, the core never writes to stderr on its own
// initiative: the default Logger is a no-op, mirroring
// eventloop.SetStructuredLogger's discard-by-default behavior.
type Logger = *logiface.Logger[*logEvent]

var (
	globalLogger struct {
		sync.RWMutex
		logger Logger
	}
)

// SetLogger installs the package-level structured logger. Passing nil
// restores the no-op default.
func SetLogger(l Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = l
}

func currentLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return discardLogger
}

// logTaskPanic logs a recovered panic from a scheduled work item, combinator
// callback, or fiber thunk. component identifies where the panic was
// recovered: the scheduler's name for a work item, or "fiber" for a fiber
// thunk. An optional override
// logger (a scheduler's per-Config.Logger) takes precedence over the
// package-level one; pass nil to always use the package-level logger.
func logTaskPanic(override Logger, component string, recovered any) {
	logger := override
	if logger == nil {
		logger = currentLogger()
	}
	logger.Err().
		Str("component", component).
		Call(func(b *logiface.Builder[*logEvent]) {
			if err, ok := recovered.(error); ok {
				b.Err(err)
			} else {
				b.Interface("panic", recovered)
			}
		}).
		Log("libdex: recovered panic in scheduled work")
}

func logOverload(override Logger, schedulerName string, pending int) {
	logger := override
	if logger == nil {
		logger = currentLogger()
	}
	logger.Warning().
		Str("scheduler", schedulerName).
		Int("pending", pending).
		Log("libdex: scheduler overloaded")
}
