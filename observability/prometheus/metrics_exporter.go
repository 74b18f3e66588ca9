// Package prometheus exports pool activity as Prometheus metrics, either
// per task through a pool.Recorder or periodically from Stats snapshots.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/jzx17/gotaskgraph/pkg/pool"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// Namespace prefixes every metric name. Defaults to "gotaskgraph".
	Namespace string

	// DurationBuckets overrides the task duration histogram buckets.
	DurationBuckets []float64
}

// MetricsExporter adapts pool.Recorder to Prometheus collectors. One
// exporter observes one pool, identified by the pool label it was created
// with.
type MetricsExporter struct {
	poolName string

	taskDurationSeconds *prom.HistogramVec
	taskFailedTotal     *prom.CounterVec
	queueDepth          *prom.GaugeVec
}

var _ pool.Recorder = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors observing
// the pool named poolName.
func NewMetricsExporter(poolName string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "gotaskgraph"
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"pool"})
	failedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_failed_total",
		Help:      "Total number of tasks that returned an error or panicked.",
	}, []string{"pool"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Queue depth observed when a task was popped.",
	}, []string{"pool"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if failedVec, err = registerCollector(reg, failedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		poolName:            normalizeLabel(poolName, "pool"),
		taskDurationSeconds: durationVec,
		taskFailedTotal:     failedVec,
		queueDepth:          queueDepthVec,
	}, nil
}

// ObserveTask records one task execution.
func (m *MetricsExporter) ObserveTask(d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(m.poolName).Observe(d.Seconds())
	if failed {
		m.taskFailedTotal.WithLabelValues(m.poolName).Inc()
	}
}

// ObserveQueueDepth records the queue depth seen at a pop.
func (m *MetricsExporter) ObserveQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(m.poolName).Set(float64(depth))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
