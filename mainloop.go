package libdex

import (
	"context"
	"sync"
	"sync/atomic"
)

// runState is MainLoop's atomic lifecycle word; Run enters runRunning only
// by a CAS from runIdle.
type runState uint32

const (
	runIdle runState = iota
	runRunning
	runStopped
)

// MainLoop is a single-threaded cooperative Scheduler bound to one
// goroutine's dispatch loop: push enqueues onto a per-thread FIFO; a loop
// source drains it each iteration, guaranteeing FIFO dispatch order on that
// goroutine.
//
// The event loop itself is external — MainLoop does not poll any file
// descriptor or timer itself. A caller either runs MainLoop.Run as its own
// dedicated dispatch goroutine, or, if it already owns an event loop (e.g.
// a GUI toolkit's main loop), calls DispatchOnce each iteration as the
// dispatch hook instead.
type MainLoop struct {
	name string

	mu    sync.Mutex
	queue []WorkItem

	wake  chan struct{}
	state atomic.Uint32

	logger Logger
}

// NewMainLoop constructs an idle MainLoop. name identifies it in
// diagnostics; an empty name defaults to "mainloop".
func NewMainLoop(name string) *MainLoop {
	if name == "" {
		name = "mainloop"
	}
	return &MainLoop{
		name: name,
		wake: make(chan struct{}, 1),
	}
}

func (l *MainLoop) Name() string { return l.name }

// WithLoopLogger overrides the logger used for diagnostics from a single
// MainLoop, independent of the package-level logger installed via
// SetLogger.
func (l *MainLoop) WithLoopLogger(logger Logger) *MainLoop {
	l.logger = logger
	return l
}

// Push enqueues w for execution on this loop's dispatch goroutine. Safe to
// call from any goroutine.
func (l *MainLoop) Push(w WorkItem) {
	l.mu.Lock()
	l.queue = append(l.queue, w)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *MainLoop) drain() []WorkItem {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return nil
	}
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()
	return batch
}

func (l *MainLoop) runBatch(batch []WorkItem) {
	for _, w := range batch {
		l.safeRun(w)
	}
}

func (l *MainLoop) safeRun(w WorkItem) {
	defer func() {
		if r := recover(); r != nil {
			logTaskPanic(l.logger, l.name, r)
		}
	}()
	w()
}

// DispatchOnce drains and runs every work item currently queued, as a
// single step an externally-owned event loop can call once per iteration.
// It reports whether any work item ran. The calling goroutine is bound to
// Current() for the duration.
func (l *MainLoop) DispatchOnce() (ran bool) {
	batch := l.drain()
	if len(batch) == 0 {
		return false
	}
	bindCurrent(l, func() { l.runBatch(batch) })
	return true
}

// Run owns the calling goroutine as this loop's dispatch loop until ctx is
// cancelled or Stop is called, blocking between batches on either a wakeup
// from Push or ctx.Done(). It is the self-contained alternative to
// DispatchOnce for callers with no event loop of their own to attach to.
func (l *MainLoop) Run(ctx context.Context) {
	if !l.state.CompareAndSwap(uint32(runIdle), uint32(runRunning)) {
		return
	}
	defer l.state.Store(uint32(runStopped))

	bindCurrent(l, func() {
		for {
			l.runBatch(l.drain())

			if runState(l.state.Load()) == runStopped {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-l.wake:
			}
		}
	})
}

// Stop requests that a running Run loop exit after its current batch,
// waking it if it is currently blocked waiting for work.
func (l *MainLoop) Stop() {
	l.state.Store(uint32(runStopped))
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
