package libdex

import "github.com/prometheus/client_golang/prometheus"

// schedulerMetrics holds the optional prometheus collectors for one
// scheduler instance, enabled via WithMetricsEnabled: work items executed,
// queue depth, steals, and live fibers.
type schedulerMetrics struct {
	workItemsExecuted prometheus.Counter
	queueDepth        prometheus.Gauge
	stealCount        prometheus.Counter
	fiberCount        prometheus.Gauge
}

func newSchedulerMetrics(name string) *schedulerMetrics {
	labels := prometheus.Labels{"scheduler": name}
	return &schedulerMetrics{
		workItemsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "libdex",
			Subsystem:   "scheduler",
			Name:        "work_items_executed_total",
			Help:        "Total work items executed by this scheduler.",
			ConstLabels: labels,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "libdex",
			Subsystem:   "scheduler",
			Name:        "queue_depth",
			Help:        "Work items currently queued (global + all local deques).",
			ConstLabels: labels,
		}),
		stealCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "libdex",
			Subsystem:   "scheduler",
			Name:        "steal_total",
			Help:        "Total work items claimed by stealing from another worker's deque.",
			ConstLabels: labels,
		}),
		fiberCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "libdex",
			Subsystem:   "scheduler",
			Name:        "fibers",
			Help:        "Fibers currently spawned on this scheduler (READY, RUNNING, or SUSPENDED).",
			ConstLabels: labels,
		}),
	}
}

// fiberSpawned and fiberCompleted satisfy the optional fiberTracker
// interface fiber.go probes a Scheduler for, so ThreadPool's live-fiber
// gauge reflects fibers actually scheduled on it without Fiber needing a
// concrete dependency on ThreadPool.
func (tp *ThreadPool) fiberSpawned() {
	if tp.metrics != nil {
		tp.metrics.fiberCount.Inc()
	}
}

func (tp *ThreadPool) fiberCompleted() {
	if tp.metrics != nil {
		tp.metrics.fiberCount.Dec()
	}
}

// Collectors returns the set of prometheus.Collector this pool reports,
// for a caller to register with their own prometheus.Registerer. Returns
// nil if the pool was constructed without WithMetricsEnabled.
func (tp *ThreadPool) Collectors() []prometheus.Collector {
	if tp.metrics == nil {
		return nil
	}
	return []prometheus.Collector{
		tp.metrics.workItemsExecuted,
		tp.metrics.queueDepth,
		tp.metrics.stealCount,
		tp.metrics.fiberCount,
	}
}
