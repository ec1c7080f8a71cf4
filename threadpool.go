package libdex

import (
	"sync"

	"github.com/joeycumines/libdex/internal/deque"
)

// task is the unit of work a ThreadPool moves between its global queue and
// per-worker deques.
type task struct {
	fn WorkItem
}

// ThreadPool is a work-stealing Scheduler: N workers, each owning a local
// deque (LIFO pop for cache locality), backed by a shared
// global queue for submissions from non-worker goroutines and overflow.
// Idle workers block on a condition variable signalled by any submission;
// a worker prefers its own local deque, then stealing (FIFO) from another
// worker's deque, then the global queue.
type ThreadPool struct {
	name string

	mu        sync.Mutex
	cond      *sync.Cond
	global    []task
	workerOf  map[uint64]*worker
	stopped   bool
	workers   []*worker
	stealFlag bool

	wg sync.WaitGroup

	logger  Logger
	metrics *schedulerMetrics

	overloadThreshold int
}

type worker struct {
	id    int
	pool  *ThreadPool
	local *deque.Deque[task]
}

// NewThreadPool starts a ThreadPool configured by opts and returns it ready
// to accept Push calls. Workers run until Stop is called.
func NewThreadPool(name string, opts ...Option) *ThreadPool {
	if name == "" {
		name = "threadpool"
	}
	cfg := resolveOptions(opts)

	tp := &ThreadPool{
		name:              name,
		workerOf:          make(map[uint64]*worker, cfg.ThreadPoolWorkers),
		stealFlag:         cfg.Steal,
		logger:            cfg.Logger,
		overloadThreshold: cfg.ThreadPoolWorkers * 4096,
	}
	tp.cond = sync.NewCond(&tp.mu)

	if cfg.MetricsEnabled {
		tp.metrics = newSchedulerMetrics(name)
	}

	tp.workers = make([]*worker, cfg.ThreadPoolWorkers)
	for i := range tp.workers {
		tp.workers[i] = &worker{id: i, pool: tp, local: deque.New[task](256)}
	}

	tp.wg.Add(len(tp.workers))
	for _, w := range tp.workers {
		go w.run()
	}
	return tp
}

func (tp *ThreadPool) Name() string { return tp.name }

// Push enqueues w. Called from one of this pool's own workers, it lands on
// that worker's local deque; called from anywhere else, it lands on the
// shared global queue. Either way, every idle worker is woken to give it a
// chance to steal or claim it.
func (tp *ThreadPool) Push(w WorkItem) {
	t := task{fn: w}
	gid := goroutineID()

	tp.mu.Lock()
	if wk, ok := tp.workerOf[gid]; ok {
		wk.local.PushBottom(t)
	} else {
		tp.global = append(tp.global, t)
	}
	depth := tp.queueDepthLocked()
	if tp.metrics != nil {
		tp.metrics.queueDepth.Set(float64(depth))
	}
	tp.cond.Broadcast()
	tp.mu.Unlock()

	if depth > tp.overloadThreshold {
		logOverload(tp.logger, tp.name, depth)
	}
}

func (tp *ThreadPool) queueDepthLocked() int {
	n := len(tp.global)
	for _, w := range tp.workers {
		n += w.local.Len()
	}
	return n
}

// Stop signals every worker to exit once it has drained all reachable work
// and waits for them to do so. The source terminates workers at scheduler
// drop "by a sentinel drained like any other work item"; Go's idiom for
// that is a state flag consulted at exactly the point a work item would
// otherwise be popped, which is what stopped does here — a worker only
// exits once it has confirmed, under the same lock as every push, that
// there is nothing left anywhere in the pool for it to do.
func (tp *ThreadPool) Stop() {
	tp.mu.Lock()
	if tp.stopped {
		tp.mu.Unlock()
		return
	}
	tp.stopped = true
	tp.cond.Broadcast()
	tp.mu.Unlock()

	tp.wg.Wait()
}

func (w *worker) run() {
	defer w.pool.wg.Done()

	gid := goroutineID()
	w.pool.mu.Lock()
	w.pool.workerOf[gid] = w
	w.pool.mu.Unlock()
	defer func() {
		w.pool.mu.Lock()
		delete(w.pool.workerOf, gid)
		w.pool.mu.Unlock()
	}()

	bindCurrent(w.pool, func() {
		for {
			t, ok := w.tryGetWork()
			if ok {
				w.pool.runTask(t)
				continue
			}

			w.pool.mu.Lock()
			if w.pool.stopped && !w.anyPendingLocked() {
				w.pool.mu.Unlock()
				return
			}
			if !w.anyPendingLocked() {
				w.pool.cond.Wait()
			}
			w.pool.mu.Unlock()
		}
	})
}

// anyPendingLocked reports whether there is any work reachable anywhere in
// the pool. Callers must hold pool.mu.
func (w *worker) anyPendingLocked() bool {
	if len(w.pool.global) > 0 {
		return true
	}
	for _, other := range w.pool.workers {
		if other.local.Len() > 0 {
			return true
		}
	}
	return false
}

func (w *worker) tryGetWork() (task, bool) {
	if t, ok := w.local.PopBottom(); ok {
		return t, true
	}
	if w.pool.stealFlag {
		if t, ok := w.steal(); ok {
			return t, true
		}
	}
	return w.pool.popGlobal()
}

func (w *worker) steal() (task, bool) {
	n := len(w.pool.workers)
	for i := 1; i < n; i++ {
		victim := w.pool.workers[(w.id+i)%n]
		if t, ok := victim.local.PopTop(); ok {
			if w.pool.metrics != nil {
				w.pool.metrics.stealCount.Inc()
			}
			return t, true
		}
	}
	return task{}, false
}

func (tp *ThreadPool) popGlobal() (task, bool) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	if len(tp.global) == 0 {
		return task{}, false
	}
	t := tp.global[0]
	tp.global = tp.global[1:]
	return t, true
}

func (tp *ThreadPool) runTask(t task) {
	defer func() {
		if r := recover(); r != nil {
			logTaskPanic(tp.logger, tp.name, r)
		}
	}()
	t.fn()
	if tp.metrics != nil {
		tp.metrics.workItemsExecuted.Inc()
	}
}
