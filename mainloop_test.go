package libdex

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainLoopDispatchOnceRunsQueuedWork(t *testing.T) {
	l := NewMainLoop("")
	assert.Equal(t, "mainloop", l.Name())

	ran := false
	l.Push(func() { ran = true })

	assert.True(t, l.DispatchOnce())
	assert.True(t, ran)
	assert.False(t, l.DispatchOnce(), "second call with nothing queued reports false")
}

func TestMainLoopDispatchOnceIsFIFO(t *testing.T) {
	l := NewMainLoop("fifo")
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		l.Push(func() { order = append(order, i) })
	}
	l.DispatchOnce()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestMainLoopDispatchOnceBindsCurrent(t *testing.T) {
	l := NewMainLoop("bind")
	var observed Scheduler
	l.Push(func() { observed = Current() })
	l.DispatchOnce()
	assert.Equal(t, Scheduler(l), observed)
}

func TestMainLoopPanicIsRecovered(t *testing.T) {
	l := NewMainLoop("panicky")
	ranAfter := false
	l.Push(func() { panic("boom") })
	l.Push(func() { ranAfter = true })

	require.NotPanics(t, func() { l.DispatchOnce() })
	assert.True(t, ranAfter, "a panicking work item must not prevent later items in the same batch")
}

func TestMainLoopRunProcessesUntilStopped(t *testing.T) {
	l := NewMainLoop("run")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var count int
	go l.Run(ctx)

	for i := 0; i < 10; i++ {
		l.Push(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		c := count
		mu.Unlock()
		if c == 10 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("not all work items ran")
		case <-time.After(time.Millisecond):
		}
	}

	l.Stop()
}

func TestMainLoopRunExitsOnContextCancel(t *testing.T) {
	l := NewMainLoop("ctx")
	ctx, cancel := context.WithCancel(context.Background())

	doneCh := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(doneCh)
	}()
	cancel()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}
