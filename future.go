package libdex

import (
	"sync"
	"sync/atomic"
)

// Status is a future's position in its status machine. It is monotonic:
// once a future leaves Pending it never returns to it.
type Status int32

const (
	Pending Status = iota
	Resolved
	Rejected
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Resolved:
		return "RESOLVED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// dependent is one registered (scheduler, callback) pair, drained exactly
// once when the owning future settles.
type dependent struct {
	scheduler Scheduler
	cb        func(*Future)
}

// Future is a single-settlement asynchronous value: a status, a value slot
// valid only at Resolved, an error slot valid only at Rejected, and an
// ordered list of dependent callbacks drained on settlement.
//
// The source models futures as manually ref-counted nodes so combinator
// graphs can free themselves deterministically without a GC. Go already
// reclaims unreachable futures, so Ref/Unref here are bookkeeping only —
// present for API parity with callers translating from the ref-counted
// original, not required for correct memory reclamation. Nothing in this
// package relies on the reference count reaching zero.
type Future struct {
	mu         sync.Mutex
	status     atomic.Int32
	value      any
	err        error
	dependents []dependent
	refs       atomic.Int32
}

func newFuture() *Future {
	f := &Future{}
	f.refs.Store(1)
	return f
}

// Status returns the future's current status.
func (f *Future) Status() Status {
	return Status(f.status.Load())
}

// Value returns the resolved value and true, or (nil, false) if the future
// is not currently Resolved.
func (f *Future) Value() (any, bool) {
	if f.Status() != Resolved {
		return nil, false
	}
	return f.value, true
}

// Err returns the rejection error and true, or (nil, false) if the future
// is not currently Rejected.
func (f *Future) Err() (error, bool) {
	if f.Status() != Rejected {
		return nil, false
	}
	return f.err, true
}

// Ref increments the bookkeeping reference count and returns f, for chaining.
func (f *Future) Ref() *Future {
	f.refs.Add(1)
	return f
}

// Unref decrements the bookkeeping reference count. It never frees
// anything: Go's garbage collector reclaims the future once it is
// otherwise unreachable.
func (f *Future) Unref() {
	f.refs.Add(-1)
}

// Disown registers a no-op dependent, so the future's eventual settlement
// is observed (keeping it alive through any scheduler that still holds a
// ref) without the caller needing to care about the outcome.
func (f *Future) Disown() {
	f.register(effectiveScheduler(), func(*Future) {})
}

// register subscribes cb to run on sched exactly once, when f settles. If f
// is already settled, cb is scheduled immediately — but always via sched,
// never inline in the calling goroutine. A nil f never panics: cb runs
// against a synthetic future already rejected with a Failed "nil future"
// error, so every combinator built on register gets well-defined behavior
// for a nil argument without its own guard.
func (f *Future) register(sched Scheduler, cb func(*Future)) {
	if sched == nil {
		sched = effectiveScheduler()
	}

	if f == nil {
		sched.Push(func() { cb(rejected(NewError(Failed, "nil future"))) })
		return
	}

	// Optimistic lock-free check: most registrations against an
	// already-settled future (the common case for combinators chaining off
	// synchronously-resolved sources) avoid the mutex entirely.
	if f.Status() != Pending {
		sched.Push(func() { cb(f) })
		return
	}

	f.mu.Lock()
	if f.Status() != Pending {
		f.mu.Unlock()
		sched.Push(func() { cb(f) })
		return
	}
	f.dependents = append(f.dependents, dependent{scheduler: sched, cb: cb})
	f.mu.Unlock()
}

// settle transitions f out of Pending exactly once. The winning caller
// drains and releases the dependent list; losing callers are told they
// lost via the bool return (settle_resolve/settle_reject's "first wins,
// others return a logical failure").
func (f *Future) settle(status Status, value any, err error) bool {
	if f.Status() != Pending {
		return false
	}

	f.mu.Lock()
	if f.Status() != Pending {
		f.mu.Unlock()
		return false
	}
	f.value = value
	f.err = err
	f.status.Store(int32(status))
	deps := f.dependents
	f.dependents = nil
	f.mu.Unlock()

	for _, d := range deps {
		d := d
		d.scheduler.Push(func() { d.cb(f) })
	}
	return true
}

func (f *Future) settleResolve(value any) bool {
	return f.settle(Resolved, value, nil)
}

func (f *Future) settleReject(err error) bool {
	return f.settle(Rejected, nil, err)
}

// resolved returns an already-Resolved future carrying value.
func resolved(value any) *Future {
	f := newFuture()
	f.settleResolve(value)
	return f
}

// rejected returns an already-Rejected future carrying err.
func rejected(err error) *Future {
	f := newFuture()
	f.settleReject(err)
	return f
}
