package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/jzx17/gotaskgraph/pkg/pool"
	"github.com/jzx17/gotaskgraph/pkg/types"
)

// StatsProvider provides current pool stats snapshots.
type StatsProvider interface {
	Stats() pool.Stats
}

// SnapshotPoller periodically exports pool Stats() snapshots into
// Prometheus gauges. Pools are registered by name; the same poller can watch
// any number of them.
type SnapshotPoller struct {
	interval time.Duration
	clock    types.Clock

	poolsMu sync.RWMutex
	pools   map[string]StatsProvider

	poolWorkers    *prom.GaugeVec
	poolQueueDepth *prom.GaugeVec
	poolSubmitted  *prom.GaugeVec
	poolExecuted   *prom.GaugeVec
	poolFailed     *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// PollerOption configures a SnapshotPoller.
type PollerOption func(*SnapshotPoller)

// WithClock sets the clock driving the poll ticker.
func WithClock(clock types.Clock) PollerOption {
	return func(p *SnapshotPoller) { p.clock = clock }
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration, opts ...PollerOption) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "gotaskgraph",
		Name:      "pool_workers",
		Help:      "Worker count per pool.",
	}, []string{"pool"})
	poolQueueDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "gotaskgraph",
		Name:      "pool_queue_depth",
		Help:      "Tasks currently queued per pool.",
	}, []string{"pool"})
	poolSubmitted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "gotaskgraph",
		Name:      "pool_submitted",
		Help:      "Pool submitted task count snapshot.",
	}, []string{"pool"})
	poolExecuted := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "gotaskgraph",
		Name:      "pool_executed",
		Help:      "Pool executed task count snapshot.",
	}, []string{"pool"})
	poolFailed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "gotaskgraph",
		Name:      "pool_failed",
		Help:      "Pool failed task count snapshot.",
	}, []string{"pool"})

	var err error
	if poolWorkers, err = registerCollector(reg, poolWorkers); err != nil {
		return nil, err
	}
	if poolQueueDepth, err = registerCollector(reg, poolQueueDepth); err != nil {
		return nil, err
	}
	if poolSubmitted, err = registerCollector(reg, poolSubmitted); err != nil {
		return nil, err
	}
	if poolExecuted, err = registerCollector(reg, poolExecuted); err != nil {
		return nil, err
	}
	if poolFailed, err = registerCollector(reg, poolFailed); err != nil {
		return nil, err
	}

	p := &SnapshotPoller{
		interval:       interval,
		clock:          types.NewRealClock(),
		pools:          make(map[string]StatsProvider),
		poolWorkers:    poolWorkers,
		poolQueueDepth: poolQueueDepth,
		poolSubmitted:  poolSubmitted,
		poolExecuted:   poolExecuted,
		poolFailed:     poolFailed,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *SnapshotPoller) AddPool(name string, provider StatsProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "pool")
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()

	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.poolQueueDepth.WithLabelValues(name).Set(float64(stats.QueueDepth))
		p.poolSubmitted.WithLabelValues(name).Set(float64(stats.Submitted))
		p.poolExecuted.WithLabelValues(name).Set(float64(stats.Executed))
		p.poolFailed.WithLabelValues(name).Set(float64(stats.Failed))
	}
}
