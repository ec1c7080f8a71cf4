// Package libdex is a concurrency runtime providing promises/futures,
// fibers (stackful coroutines), schedulers, and bounded channels for
// composing asynchronous work on top of a main-loop-style event system.
//
// # Architecture
//
// [Future] is the core primitive: a single-settlement value with a status,
// an ordered list of dependent callbacks, and combinators ([All], [Any],
// [First], [Then], [Catch], [Finally], [ThenLoop], [FinallyLoop]) built over
// it. [Promise] is a future plus the external capability to settle it.
//
// Two [Scheduler] realizations share a common dispatch contract:
// [MainLoop] is a single-threaded cooperative scheduler bound to an
// externally-owned event loop; [ThreadPool] is a work-stealing multi-worker
// scheduler with a per-worker deque and a shared global queue.
//
// [Fiber] is a stackful-coroutine-equivalent unit of work: [Spawn] starts
// one on a Scheduler, and [Fiber.Await] suspends it until a future settles,
// resuming it via its home scheduler.
//
// [Channel] is a bounded FIFO of futures with independent close-from-send
// and close-from-receive semantics.
//
// # Thread Safety
//
// Futures and channels are safe for concurrent use from any goroutine.
// Combinator callbacks and work items must not block — they run to
// completion on whichever scheduler dispatched them; the idiom throughout
// is "return a future, do not sleep". A fiber is pinned to the scheduler it
// was spawned on but may migrate between a ThreadPool's workers across
// Await suspensions.
//
// # Error Handling
//
// The package provides a domain-specific error type, [Error], classified
// by [Kind] ([TimedOut], [Closed], [Cancelled], [DependencyFailed],
// [Failed]), and [AggregateError] for combinators (currently [Any]) that
// expose more than one constituent failure via Unwrap() []error. Both work
// with errors.Is and errors.As.
//
// # Logging
//
// The core never writes to stderr on its own initiative. Diagnostics —
// recovered panics from work items and fiber thunks, scheduler overload —
// go through a package-level structured logger backed by
// github.com/joeycumines/logiface, installed with [SetLogger]. The default
// is a no-op.
//
// # Usage
//
//	pool := libdex.NewThreadPool("workers", libdex.WithThreadPoolWorkers(4))
//	defer pool.Stop()
//
//	result := libdex.Spawn(pool, 0, func(fib *libdex.Fiber) *libdex.Future {
//	    p := libdex.NewPromise()
//	    go func() {
//	        time.Sleep(10 * time.Millisecond)
//	        p.Resolve(42)
//	    }()
//	    race := libdex.First(pool, p.Future(), libdex.TimeoutMS(100))
//	    v, err := fib.Await(race)
//	    if err != nil {
//	        return libdex.NewRejected(err)
//	    }
//	    out := libdex.NewPromise()
//	    out.Resolve(v)
//	    return out.Future()
//	})
package libdex

// Version identifies the API contract implemented by this package.
const Version = "1.0.0"
