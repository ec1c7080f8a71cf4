package libdex

import (
	"runtime"
	"sync"
)

// WorkItem is a closure pushed to a Scheduler for later execution. Work
// items never block: the idiom throughout libdex is "return a future, do
// not sleep".
type WorkItem func()

// Scheduler is the dispatch capability shared by the main-loop and
// thread-pool realizations. A future's dependents are always invoked via
// Push on the scheduler they were registered with, never synchronously
// within the registering call.
type Scheduler interface {
	// Push enqueues a work item for later execution on this scheduler. Push
	// never runs w inline, even when called from the scheduler's own
	// dispatch goroutine, per the future core's "never call inline"
	// invariant.
	Push(w WorkItem)

	// Name identifies the scheduler in diagnostics (logging, metrics).
	Name() string
}

// goScheduler is the fallback Scheduler used when a future is
// registered/settled from a goroutine with no Scheduler bound via Current.
// It dispatches by spawning a bare goroutine per work item: async and
// non-blocking, satisfying "never call inline", but with none of the FIFO
// ordering guarantees of MainLoop or ThreadPool. Callers who need ordering
// must attach a real scheduler.
type goScheduler struct{}

func (goScheduler) Push(w WorkItem) { go w() }
func (goScheduler) Name() string    { return "go" }

var defaultScheduler Scheduler = goScheduler{}

// effectiveScheduler returns Current() if bound, else the package-wide
// goroutine-spawning fallback.
func effectiveScheduler() Scheduler {
	if s := Current(); s != nil {
		return s
	}
	return defaultScheduler
}

// currentRegistry maps a goroutine ID to the Scheduler currently dispatching
// on it, Go's analogue of the source's thread-local scheduler slot. Only a
// scheduler's own dispatch loop (MainLoop.Run or MainLoop.DispatchOnce, a
// thread-pool worker loop, or a fiber's goroutine) ever claims an entry, via
// bindCurrent.
var currentRegistry struct {
	mu sync.RWMutex
	m  map[uint64]Scheduler
}

func init() {
	currentRegistry.m = make(map[uint64]Scheduler)
}

// Current returns the Scheduler driving the calling goroutine, or nil if
// none is bound. Only goroutines running as a scheduler's dispatch loop (or
// as a fiber resumed by one) have a non-nil Current.
func Current() Scheduler {
	id := goroutineID()
	currentRegistry.mu.RLock()
	defer currentRegistry.mu.RUnlock()
	return currentRegistry.m[id]
}

// bindCurrent claims the calling goroutine for sch for the duration of fn,
// restoring whatever was bound (usually nothing) on return. It is used by
// every dispatch loop that executes work items or resumes fibers on behalf
// of a scheduler.
func bindCurrent(sch Scheduler, fn func()) {
	id := goroutineID()

	currentRegistry.mu.Lock()
	prev, hadPrev := currentRegistry.m[id]
	currentRegistry.m[id] = sch
	currentRegistry.mu.Unlock()

	defer func() {
		currentRegistry.mu.Lock()
		if hadPrev {
			currentRegistry.m[id] = prev
		} else {
			delete(currentRegistry.m, id)
		}
		currentRegistry.mu.Unlock()
	}()

	fn()
}

// goroutineID parses the numeric goroutine ID out of runtime.Stack's header
// line ("goroutine 123 [running]:..."). It is a well-known trick, not a
// supported API, but it is the only way to key a thread-local-style slot
// per goroutine without threading a context value through every call.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
