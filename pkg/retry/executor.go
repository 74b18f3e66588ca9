package retry

import (
	"context"
	"sync"
	"time"

	"github.com/jzx17/gotaskgraph/pkg/future"
	"github.com/jzx17/gotaskgraph/pkg/pool"
	"github.com/jzx17/gotaskgraph/pkg/types"
)

// Executor runs functions under a retry policy. Delays go through the
// configured clock, so tests drive them with a mock.
type Executor struct {
	policy *Policy
	clock  types.Clock

	mu    sync.Mutex
	stats Stats
}

// Stats counts executor activity across all calls.
type Stats struct {
	// Attempts is the total number of function invocations
	Attempts int64

	// Retries is the number of invocations past the first per call
	Retries int64

	// Successes is the number of calls that eventually succeeded
	Successes int64

	// Failures is the number of calls that exhausted their attempts
	Failures int64

	// TotalDelay is the summed backoff waited across all calls
	TotalDelay time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClock sets the clock used for backoff waits.
func WithClock(clock types.Clock) ExecutorOption {
	return func(e *Executor) { e.clock = clock }
}

// NewExecutor creates an executor applying policy to every call.
func NewExecutor(policy *Policy, opts ...ExecutorOption) *Executor {
	e := &Executor{
		policy: policy,
		clock:  types.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs fn until it succeeds, the policy gives up, or ctx is done. On
// exhaustion the last error is wrapped in a *types.TaskError recording the
// attempt count.
func Do[T any](e *Executor, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		e.update(func(s *Stats) {
			s.Attempts++
			if attempt > 1 {
				s.Retries++
			}
		})

		result, err := fn(ctx)
		if err == nil {
			e.update(func(s *Stats) { s.Successes++ })
			return result, nil
		}

		if !e.policy.ShouldRetry(err, attempt) {
			e.update(func(s *Stats) { s.Failures++ })
			return zero, wrapExhausted(err, attempt, e.policy.MaxAttempts())
		}

		delay := e.policy.NextDelay(attempt)
		e.update(func(s *Stats) { s.TotalDelay += delay })
		if delay > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-e.clock.After(delay):
			}
		}
	}
}

// Submit runs fn with retries on p and returns a future for the outcome.
// The backoff waits happen on the worker, so a long retry sequence occupies
// one pool slot for its whole duration.
func Submit[T any](e *Executor, ctx context.Context, p *pool.Pool, fn func(context.Context) (T, error)) *future.Future[T] {
	fut, complete := future.New[T]()
	err := p.Enqueue(func() error {
		value, err := Do(e, ctx, fn)
		complete(value, err)
		return err
	})
	if err != nil {
		var zero T
		complete(zero, types.ErrPoolClosed)
	}
	return fut
}

// Stats returns a snapshot of executor activity.
func (e *Executor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Executor) update(fn func(*Stats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.stats)
}

func wrapExhausted(err error, attempts, maxAttempts int) error {
	if taskErr, ok := err.(*types.TaskError); ok {
		return taskErr.
			WithContext("retry_attempts", attempts).
			WithContext("max_attempts", maxAttempts)
	}
	return types.NewTaskError("retry", "", err).
		WithContext("retry_attempts", attempts).
		WithContext("max_attempts", maxAttempts)
}
