/*
Package pool provides a fixed-size worker pool draining a single shared FIFO
queue.

# Overview

The pool starts its workers at construction and accepts tasks from any
goroutine, including its own workers. It supports:
- Typed task submission returning futures
- Untyped task submission for callers with their own completion wiring
- Panic recovery so a misbehaving task cannot kill a worker
- Statistics and pluggable metrics recording
- Graceful shutdown draining every accepted task

# Queue Discipline

All submissions land in one mutex-guarded slice; a condition variable wakes
an idle worker per push. Tasks submitted from a single goroutine start in
submission order. Tasks run strictly outside the queue lock, so a running
task is free to submit more work to the same pool.

# Shutdown

Close marks the pool closed, pushes one exit sentinel per worker behind all
queued work, and joins the workers. Every task accepted before Close runs
exactly once; submissions after Close are rejected with types.ErrPoolClosed.
Close is idempotent.

# Usage Examples

Basic usage:

	p := pool.New(4)
	defer p.Close()

	fut := pool.Submit(p, func() int {
		return compute()
	})

	value, err := fut.Get()

Observing failures:

	p := pool.New(4, pool.WithErrorHandler(func(err error) error {
		log.Printf("task failed: %v", err)
		return nil
	}))

Retrieve statistics:

	stats := p.Stats()
	fmt.Printf("queued: %d, executed: %d, failed: %d\n",
		stats.QueueDepth, stats.Executed, stats.Failed)

# Configuration Options

New accepts the following options:
- WithClock: clock used for task timing
- WithErrorHandler: handler notified of task failures
- WithRecorder: per-task metrics recorder

# Concurrency Safety

All exported methods are safe for concurrent use. Counters are maintained
with atomic operations; the queue is the only shared mutable state behind
the mutex.
*/
package pool
