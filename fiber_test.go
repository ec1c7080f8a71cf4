package libdex

import (
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiberLifecycleStates(t *testing.T) {
	pool := NewThreadPool("fiber-states", WithThreadPoolWorkers(1))
	defer pool.Stop()

	started := make(chan struct{})
	resume := make(chan struct{})
	var fib *Fiber

	backing := Spawn(pool, 0, func(f *Fiber) *Future {
		fib = f
		close(started)
		<-resume
		return resolved(1)
	})

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("fiber never started")
	}
	assert.Equal(t, FiberRunning, fib.State())
	assert.NotEmpty(t, fib.ID())
	assert.Equal(t, Scheduler(pool), fib.Scheduler())

	close(resume)
	awaitSettled(t, backing)
	assert.Equal(t, FiberCompleted, fib.State())
	v, _ := backing.Value()
	assert.Equal(t, 1, v)
}

// TestFiberAwaitFirstOfPromiseAndTimeout has a fiber race a promise against
// a 100ms timeout via First, with an external goroutine resolving the
// promise with 42 well before the timeout.
func TestFiberAwaitFirstOfPromiseAndTimeout(t *testing.T) {
	pool := NewThreadPool("await-race", WithThreadPoolWorkers(2))
	defer pool.Stop()

	p := NewPromise()
	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Resolve(42)
	}()

	backing := Spawn(pool, 0, func(f *Fiber) *Future {
		race := First(pool, p.Future(), TimeoutMS(100))
		v, err := f.Await(race)
		if err != nil {
			return NewRejected(err)
		}
		out := NewPromise()
		out.Resolve(v)
		return out.Future()
	})

	awaitSettled(t, backing)
	require.Equal(t, Resolved, backing.Status())
	v, _ := backing.Value()
	assert.Equal(t, 42, v)
}

func TestFiberAwaitAlreadySettledReturnsImmediately(t *testing.T) {
	pool := NewThreadPool("await-immediate", WithThreadPoolWorkers(1))
	defer pool.Stop()

	backing := Spawn(pool, 0, func(f *Fiber) *Future {
		v, err := f.Await(resolved(9))
		require.NoError(t, err)
		return resolved(v)
	})
	awaitSettled(t, backing)
	v, _ := backing.Value()
	assert.Equal(t, 9, v)
}

func TestFiberAwaitNilRejectsInsteadOfPanicking(t *testing.T) {
	pool := NewThreadPool("await-nil", WithThreadPoolWorkers(1))
	defer pool.Stop()

	backing := Spawn(pool, 0, func(f *Fiber) *Future {
		_, err := f.Await(nil)
		require.Error(t, err)
		var derr *Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, Failed, derr.Kind)
		return resolved(nil)
	})
	awaitSettled(t, backing)
	require.Equal(t, Resolved, backing.Status())
}

func TestFiberThunkPanicRejectsBackingFuture(t *testing.T) {
	pool := NewThreadPool("panic", WithThreadPoolWorkers(1))
	defer pool.Stop()

	backing := Spawn(pool, 0, func(f *Fiber) *Future {
		panic("fiber blew up")
	})
	awaitSettled(t, backing)
	require.Equal(t, Rejected, backing.Status())
	e, _ := backing.Err()
	var derr *Error
	require.ErrorAs(t, e, &derr)
	assert.Equal(t, Failed, derr.Kind)
}

func TestFiberNilResultResolvesNil(t *testing.T) {
	pool := NewThreadPool("nilresult", WithThreadPoolWorkers(1))
	defer pool.Stop()

	backing := Spawn(pool, 0, func(f *Fiber) *Future {
		return nil
	})
	awaitSettled(t, backing)
	require.Equal(t, Resolved, backing.Status())
	v, _ := backing.Value()
	assert.Nil(t, v)
}

// TestFiberPipelineOfSpawnAwaitResume is the in-memory analogue of the
// original's fiber-driven echo server: five fibers share one channel, each
// awaiting a value from it and sending that value plus one back, so the
// single initial send is handed from fiber to fiber.
func TestFiberPipelineOfSpawnAwaitResume(t *testing.T) {
	pool := NewThreadPool("pipeline", WithThreadPoolWorkers(4))
	defer pool.Stop()

	ch, err := NewChannel(1)
	require.NoError(t, err)

	const stages = 5
	var wg sync.WaitGroup
	wg.Add(stages)

	for i := 0; i < stages; i++ {
		Spawn(pool, 0, func(f *Fiber) *Future {
			defer wg.Done()
			v, err := f.Await(ch.Receive())
			if err != nil {
				return nil
			}
			got := v.(*Future)
			val, _ := got.Value()
			n := val.(int)
			ch.Send(resolved(n + 1))
			return nil
		})
	}

	ch.Send(resolved(0))

	waitOrFail(t, &wg)
}

func TestSpawnWithNilSchedulerUsesEffectiveScheduler(t *testing.T) {
	backing := Spawn(nil, 0, func(f *Fiber) *Future {
		return resolved("ok")
	})
	awaitSettled(t, backing)
	v, _ := backing.Value()
	assert.Equal(t, "ok", v)
}

func TestFiberMetricsTracksSpawnedAndCompleted(t *testing.T) {
	pool := NewThreadPool("fiber-metrics", WithThreadPoolWorkers(2), WithMetricsEnabled(true))
	defer pool.Stop()

	fiberGauge := func() float64 {
		var m dto.Metric
		_ = pool.metrics.fiberCount.Write(&m)
		return m.GetGauge().GetValue()
	}

	release := make(chan struct{})
	backing := Spawn(pool, 0, func(f *Fiber) *Future {
		<-release
		return resolved(1)
	})
	assert.Equal(t, float64(1), fiberGauge(), "Spawn counts the fiber before it runs")

	close(release)
	awaitSettled(t, backing)
	assert.Len(t, pool.Collectors(), 4)
	assert.Eventually(t, func() bool { return fiberGauge() == 0 }, time.Second, time.Millisecond,
		"a completed fiber is no longer counted")
}
