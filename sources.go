package libdex

import (
	"os"
	"os/signal"
	"time"
)

// TimeoutMS returns a future that rejects with TimedOut after ms
// milliseconds, dispatched on the scheduler bound to the calling goroutine
// at call time (or the goroutine-spawning fallback if none is bound). No
// goroutine is interrupted mid-work; the timeout future simply settles.
func TimeoutMS(ms uint64) *Future {
	return timeout(time.Duration(ms) * time.Millisecond)
}

// TimeoutSeconds returns a future that rejects with TimedOut after s
// seconds. See TimeoutMS.
func TimeoutSeconds(s uint32) *Future {
	return timeout(time.Duration(s) * time.Second)
}

func timeout(d time.Duration) *Future {
	p := NewPromise()
	sched := effectiveScheduler()
	timer := time.AfterFunc(d, func() {
		sched.Push(func() {
			p.Reject(NewError(TimedOut, "timeout elapsed"))
		})
	})
	p.future.register(defaultScheduler, func(*Future) {
		timer.Stop()
	})
	return p.future
}

// UnixSignal returns a future that resolves with the received os.Signal the
// first time the process receives any of sigs, or rejects with Cancelled if
// stop is closed first.
func UnixSignal(stop <-chan struct{}, sigs ...os.Signal) *Future {
	p := NewPromise()
	sched := effectiveScheduler()
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		select {
		case s := <-ch:
			sched.Push(func() { p.Resolve(s) })
		case <-stop:
			sched.Push(func() { p.Reject(NewError(Cancelled, "signal wait cancelled")) })
		}
	}()
	return p.future
}
