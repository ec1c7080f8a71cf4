package libdex

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/joeycumines/libdex/dexstack"
)

// FiberState is a fiber's position in its lifecycle.
type FiberState int32

const (
	FiberReady FiberState = iota
	FiberRunning
	FiberSuspended
	FiberCompleted
)

func (s FiberState) String() string {
	switch s {
	case FiberReady:
		return "READY"
	case FiberRunning:
		return "RUNNING"
	case FiberSuspended:
		return "SUSPENDED"
	case FiberCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// fiberTracker is implemented by a Scheduler that wants to count live
// fibers (currently only *ThreadPool, via its optional metrics). Probed
// with a type assertion rather than added to the Scheduler interface,
// since most schedulers have no use for it.
type fiberTracker interface {
	fiberSpawned()
	fiberCompleted()
}

// FiberFunc is a fiber's thunk: it runs to completion (punctuated by any
// number of Await suspensions) and returns the Future whose eventual
// outcome becomes the fiber's own backing future's outcome. A nil return
// settles the fiber with a nil value.
type FiberFunc func(fiber *Fiber) *Future

// Fiber is a stackful-coroutine-equivalent unit of work multiplexed over a
// Scheduler. Go has no primitive for swapping a goroutine onto
// caller-supplied stack memory, so each Fiber instead gets one dedicated,
// long-lived goroutine for its entire life. What the Scheduler actually
// governs is *when* that goroutine is allowed to proceed: Spawn
// and every resume after an Await are dispatched as scheduler work items,
// so admission ordering, fairness, and (for ThreadPool) work-stealing
// accounting all apply to fibers exactly as they do to any other work item,
// even though the fiber's Go call stack itself lives on its own goroutine
// rather than literally inside the scheduler's dispatch loop.
type Fiber struct {
	id        string
	scheduler Scheduler
	state     atomic.Int32
	future    *Future
	stack     *dexstack.Stack
}

// ID returns the fiber's identity, used to correlate it across log lines.
func (f *Fiber) ID() string { return f.id }

// State returns the fiber's current lifecycle state.
func (f *Fiber) State() FiberState { return FiberState(f.state.Load()) }

// Scheduler returns the fiber's home scheduler — the one it was spawned on,
// and the one every resume after an Await is dispatched through.
func (f *Fiber) Scheduler() Scheduler { return f.scheduler }

// Spawn starts a fiber running thunk on sched (or the effective scheduler
// if sched is nil), and returns the fiber's backing future. A stackSizeHint
// of 0 or less uses the default stack size: DEX_STACK_SIZE when it holds a
// positive integer, else 256KiB. Spawn does not read a scheduler's Config.
func Spawn(sched Scheduler, stackSizeHint int, thunk FiberFunc) *Future {
	if sched == nil {
		sched = effectiveScheduler()
	}
	if stackSizeHint <= 0 {
		stackSizeHint = envOrDefaultInt(envStackSize, defaultStackSize)
	}

	stack, err := dexstack.Allocate(stackSizeHint)
	backing := newFuture()
	if err != nil {
		backing.settleReject(WrapError(Failed, "fiber: stack allocation failed", err))
		return backing
	}

	fib := &Fiber{
		id:        uuid.NewString(),
		scheduler: sched,
		future:    backing,
		stack:     stack,
	}
	fib.state.Store(int32(FiberReady))

	if t, ok := sched.(fiberTracker); ok {
		t.fiberSpawned()
	}

	sched.Push(func() {
		go fib.run(thunk)
	})
	return backing
}

func (f *Fiber) run(thunk FiberFunc) {
	defer func() {
		if r := recover(); r != nil {
			logTaskPanic(nil, "fiber", r)
			f.state.Store(int32(FiberCompleted))
			f.future.settleReject(WrapError(Failed, "fiber thunk panicked", nil))
		}
		if t, ok := f.scheduler.(fiberTracker); ok {
			t.fiberCompleted()
		}
		_ = f.stack.Release()
	}()

	bindCurrent(f.scheduler, func() {
		f.state.Store(int32(FiberRunning))
		result := thunk(f)
		f.state.Store(int32(FiberCompleted))

		if result == nil {
			f.future.settleResolve(nil)
			return
		}
		result.register(f.scheduler, func(result *Future) {
			if v, ok := result.Value(); ok {
				f.future.settleResolve(v)
			} else if e, ok := result.Err(); ok {
				f.future.settleReject(e)
			}
		})
	})
}

// Await suspends the fiber until target settles, then returns its value or
// error. It is the only suspension point a fiber has: it is an ordinary
// blocking function call from the thunk's point of view, invisible to the
// thunk's own call stack, backed by blocking the fiber's dedicated
// goroutine on a channel that the scheduler closes once target settles —
// the scheduler dispatch that does the closing is what makes the resume
// happen via the fiber's home scheduler rather than inline.
func (f *Fiber) Await(target *Future) (any, error) {
	if target == nil {
		return nil, NewError(Failed, "await: nil future")
	}

	if target.Status() != Pending {
		return sample(target)
	}

	f.state.Store(int32(FiberSuspended))
	woken := make(chan struct{})
	target.register(f.scheduler, func(*Future) {
		close(woken)
	})
	<-woken
	f.state.Store(int32(FiberRunning))

	return sample(target)
}

func sample(f *Future) (any, error) {
	if v, ok := f.Value(); ok {
		return v, nil
	}
	e, _ := f.Err()
	return nil, e
}
