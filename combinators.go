package libdex

import "sync"

// chainResult proxies result's eventual outcome onto out. A nil result
// resolves out with a nil value, the "terminal settlement" case of a
// combinator callback that doesn't itself produce another future.
func chainResult(sched Scheduler, out *Future, result *Future) {
	if result == nil {
		out.settleResolve(nil)
		return
	}
	result.register(sched, func(result *Future) {
		if v, ok := result.Value(); ok {
			out.settleResolve(v)
		} else if e, ok := result.Err(); ok {
			out.settleReject(e)
		}
	})
}

// All resolves with the input futures, in input order, once every one has
// settled. If any child rejects, All still waits for the rest, then
// rejects with the first-by-completion-time error. An empty input resolves
// immediately.
func All(sched Scheduler, futures ...*Future) *Future {
	out := newFuture()
	n := len(futures)
	if n == 0 {
		out.settleResolve([]*Future{})
		return out
	}

	var (
		mu        sync.Mutex
		completed int
		firstErr  error
	)
	for _, child := range futures {
		child.register(sched, func(child *Future) {
			mu.Lock()
			completed++
			if firstErr == nil {
				if e, ok := child.Err(); ok {
					firstErr = e
				}
			}
			done := completed == n
			err := firstErr
			mu.Unlock()

			if !done {
				return
			}
			if err != nil {
				out.settleReject(WrapError(DependencyFailed, "all: a dependency rejected", err))
			} else {
				out.settleResolve(futures)
			}
		})
	}
	return out
}

// Any resolves with the first child to resolve successfully; it rejects
// only once every child has rejected, reporting the last-observed error
// (with every constituent error reachable via errors.As into *AggregateError).
// An empty input rejects immediately.
func Any(sched Scheduler, futures ...*Future) *Future {
	out := newFuture()
	n := len(futures)
	if n == 0 {
		out.settleReject(&AggregateError{
			Message: "any: no futures given",
			Errors:  []error{NewError(DependencyFailed, "no promise resolved")},
		})
		return out
	}

	var (
		mu          sync.Mutex
		completed   int
		errs        = make([]error, 0, n)
		resolvedYet bool
	)
	for _, child := range futures {
		child.register(sched, func(child *Future) {
			mu.Lock()
			defer mu.Unlock()
			if resolvedYet {
				return
			}
			if v, ok := child.Value(); ok {
				resolvedYet = true
				out.settleResolve(v)
				return
			}
			completed++
			if e, ok := child.Err(); ok {
				errs = append(errs, e)
			}
			if completed == n {
				msg := "any: all futures rejected"
				if len(errs) > 0 {
					msg = errs[len(errs)-1].Error()
				}
				out.settleReject(&AggregateError{Message: msg, Errors: errs})
			}
		})
	}
	return out
}

// First settles with the first child to settle, either outcome, and
// disregards the rest — it does not cancel them; they still run to
// completion and are simply not observed here. An empty input never
// settles, matching the law first(f, never) ≡ f degenerately.
func First(sched Scheduler, futures ...*Future) *Future {
	out := newFuture()
	if len(futures) == 0 {
		return out
	}

	var once sync.Once
	for _, child := range futures {
		child.register(sched, func(child *Future) {
			once.Do(func() {
				if v, ok := child.Value(); ok {
					out.settleResolve(v)
				} else if e, ok := child.Err(); ok {
					out.settleReject(e)
				}
			})
		})
	}
	return out
}

// Then invokes fn on the registered scheduler once f resolves, chaining
// whatever future fn returns (a nil return resolves with nil). If f
// rejects, fn is not invoked and the rejection propagates unchanged.
func Then(sched Scheduler, f *Future, fn func(*Future) *Future) *Future {
	out := newFuture()
	f.register(sched, func(f *Future) {
		if f.Status() == Rejected {
			e, _ := f.Err()
			out.settleReject(e)
			return
		}
		chainResult(sched, out, fn(f))
	})
	return out
}

// Catch is the rejection-side mirror of Then: fn runs only if f rejects; a
// resolution of f propagates unchanged.
func Catch(sched Scheduler, f *Future, fn func(*Future) *Future) *Future {
	out := newFuture()
	f.register(sched, func(f *Future) {
		if f.Status() == Resolved {
			v, _ := f.Value()
			out.settleResolve(v)
			return
		}
		chainResult(sched, out, fn(f))
	})
	return out
}

// Finally always invokes fn(f) once f settles, regardless of outcome; the
// combinator's own outcome is fn's outcome, not f's — supporting a cleanup
// step that itself produces the pipeline's next value or error.
func Finally(sched Scheduler, f *Future, fn func(*Future) *Future) *Future {
	out := newFuture()
	f.register(sched, func(f *Future) {
		chainResult(sched, out, fn(f))
	})
	return out
}

// ThenLoop behaves like Then, except fn's returned future becomes the next
// input to await and re-invoke fn against; the loop stops, settling the
// combinator with the last settled value, the moment fn returns nil. A
// rejection at any iteration stops the loop and propagates immediately.
func ThenLoop(sched Scheduler, f *Future, fn func(*Future) *Future) *Future {
	out := newFuture()
	var step func(cur *Future)
	step = func(cur *Future) {
		cur.register(sched, func(cur *Future) {
			if cur.Status() == Rejected {
				e, _ := cur.Err()
				out.settleReject(e)
				return
			}
			next := fn(cur)
			if next == nil {
				v, _ := cur.Value()
				out.settleResolve(v)
				return
			}
			step(next)
		})
	}
	step(f)
	return out
}

// FinallyLoop behaves like Finally, iterating fn's returned future as the
// next input until fn returns nil, at which point the combinator settles
// with whatever the last iteration's input settled with.
func FinallyLoop(sched Scheduler, f *Future, fn func(*Future) *Future) *Future {
	out := newFuture()
	var step func(cur *Future)
	step = func(cur *Future) {
		cur.register(sched, func(cur *Future) {
			next := fn(cur)
			if next != nil {
				step(next)
				return
			}
			if v, ok := cur.Value(); ok {
				out.settleResolve(v)
			} else if e, ok := cur.Err(); ok {
				out.settleReject(e)
			}
		})
	}
	step(f)
	return out
}
