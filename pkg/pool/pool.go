package pool

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/gotaskgraph/pkg/future"
	"github.com/jzx17/gotaskgraph/pkg/types"
)

// taskFunc is an erased queued task. A nil taskFunc is the shutdown sentinel:
// a worker popping it exits its loop.
type taskFunc func() error

// Recorder observes per-task execution for metrics export.
type Recorder interface {
	// ObserveTask is called after each task runs with its duration and
	// whether it failed.
	ObserveTask(d time.Duration, failed bool)

	// ObserveQueueDepth is called with the queue depth seen when a task was
	// popped.
	ObserveQueueDepth(depth int)
}

// Config holds pool configuration set through options.
type Config struct {
	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// ErrorHandler observes task failures (optional)
	ErrorHandler types.ErrorHandler

	// Recorder observes task execution for metrics (optional)
	Recorder Recorder
}

// Option configures a Pool.
type Option func(*Config)

// WithClock sets the clock used for task timing.
func WithClock(clock types.Clock) Option {
	return func(c *Config) { c.Clock = clock }
}

// WithErrorHandler sets the handler notified of task failures.
func WithErrorHandler(handler types.ErrorHandler) Option {
	return func(c *Config) { c.ErrorHandler = handler }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(c *Config) { c.Recorder = rec }
}

// Pool is a fixed set of worker goroutines draining a single FIFO queue.
//
// All submissions share one queue guarded by one mutex, so the pool accepts
// tasks from any goroutine, workers included. Tasks always run outside the
// lock and are therefore free to submit further work to the pool or call
// back into structures that themselves enqueue here.
//
// Close pushes one sentinel per worker behind all queued work and joins the
// workers, so every task enqueued before Close runs exactly once.
type Pool struct {
	mu     sync.Mutex
	notify *sync.Cond
	queue  []taskFunc
	closed bool

	workers   int
	wg        sync.WaitGroup
	closeOnce sync.Once

	clock        types.Clock
	errorHandler types.ErrorHandler
	recorder     Recorder

	submitted int64
	executed  int64
	failed    int64
}

// New creates a pool with the given number of workers and starts them.
// A zero-worker pool is legal: it makes no progress, and Close returns
// immediately.
func New(workers int, opts ...Option) *Pool {
	if workers < 0 {
		workers = 0
	}

	cfg := &Config{Clock: types.NewRealClock()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = types.NewRealClock()
	}

	p := &Pool{
		workers:      workers,
		clock:        cfg.Clock,
		errorHandler: cfg.ErrorHandler,
		recorder:     cfg.Recorder,
	}
	p.notify = sync.NewCond(&p.mu)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.workerLoop()
	}
	return p
}

// Submit packages fn, enqueues it, and returns a future for its result.
// Submission never blocks beyond the brief critical section. Submitting to a
// closed pool yields a future failed with types.ErrPoolClosed.
func Submit[R any](p *Pool, fn func() R) *future.Future[R] {
	run, fut := future.NewTask(fn)
	if !p.push(run) {
		return future.Failed[R](types.ErrPoolClosed)
	}
	return fut
}

// Enqueue adds a pre-packaged task with no future wiring of its own. The
// caller already holds whatever completion signal it needs; the task graph
// uses this for trampolines it packaged itself.
func (p *Pool) Enqueue(run func() error) error {
	if run == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if !p.push(run) {
		return types.ErrPoolClosed
	}
	return nil
}

// push appends t behind all queued work and wakes one worker. Reports false
// once shutdown has begun.
func (p *Pool) push(t taskFunc) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, t)
	atomic.AddInt64(&p.submitted, 1)
	p.notify.Signal()
	return true
}

// Close shuts the pool down and blocks until every task enqueued before the
// call has run. Safe to call more than once.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		// One sentinel per worker, behind all real work, so each worker
		// drains the queue up to its own exit marker.
		for i := 0; i < p.workers; i++ {
			p.queue = append(p.queue, nil)
		}
		p.notify.Broadcast()
		p.mu.Unlock()

		p.wg.Wait()
	})
	return nil
}

// Workers returns the worker count the pool was created with.
func (p *Pool) Workers() int {
	return p.workers
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	// Workers is the fixed worker count
	Workers int

	// QueueDepth is the number of tasks currently queued
	QueueDepth int

	// Submitted is the total number of tasks accepted
	Submitted int64

	// Executed is the total number of tasks completed without error
	Executed int64

	// Failed is the total number of tasks that returned an error or panicked
	Failed int64
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	depth := len(p.queue)
	p.mu.Unlock()

	return Stats{
		Workers:    p.workers,
		QueueDepth: depth,
		Submitted:  atomic.LoadInt64(&p.submitted),
		Executed:   atomic.LoadInt64(&p.executed),
		Failed:     atomic.LoadInt64(&p.failed),
	}
}

// workerLoop pops tasks until it meets a sentinel. The popped task runs
// strictly outside the lock.
func (p *Pool) workerLoop() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 {
			p.notify.Wait()
		}
		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		depth := len(p.queue)
		p.mu.Unlock()

		if t == nil {
			return
		}
		p.runTask(t, depth)
	}
}

func (p *Pool) runTask(t taskFunc, depth int) {
	start := p.clock.Now()
	err := p.invoke(t)
	elapsed := p.clock.Since(start)

	failed := err != nil
	if failed {
		atomic.AddInt64(&p.failed, 1)
		if p.errorHandler != nil {
			_ = p.errorHandler(err)
		}
	} else {
		atomic.AddInt64(&p.executed, 1)
	}

	if p.recorder != nil {
		p.recorder.ObserveTask(elapsed, failed)
		p.recorder.ObserveQueueDepth(depth)
	}
}

// invoke runs t with a worker-level safety net. Tasks packaged through the
// future package recover their own panics; this guards bare Enqueue callers
// so a panicking task still cannot kill the worker.
func (p *Pool) invoke(t taskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			var cause error
			switch v := r.(type) {
			case error:
				cause = v
			default:
				cause = fmt.Errorf("panic: %v", v)
			}
			err = types.NewTaskError("pool", "", cause).
				WithContext("stack_trace", string(buf[:n]))
		}
	}()
	return t()
}
