package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/gotaskgraph/pkg/pool"
	"github.com/jzx17/gotaskgraph/pkg/types"
)

func TestFixedBackoff(t *testing.T) {
	b := NewFixed(100 * time.Millisecond)
	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 100*time.Millisecond, b.NextDelay(attempt))
	}
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		name     string
		strategy *Exponential
		attempt  int
		expected time.Duration
	}{
		{
			name:     "first retry uses initial delay",
			strategy: NewExponential(100 * time.Millisecond),
			attempt:  1,
			expected: 100 * time.Millisecond,
		},
		{
			name:     "third retry quadruples",
			strategy: NewExponential(100 * time.Millisecond),
			attempt:  3,
			expected: 400 * time.Millisecond,
		},
		{
			name:     "custom multiplier",
			strategy: NewExponential(100*time.Millisecond, WithMultiplier(3)),
			attempt:  2,
			expected: 300 * time.Millisecond,
		},
		{
			name:     "cap applies",
			strategy: NewExponential(time.Second, WithMaxDelay(2*time.Second)),
			attempt:  10,
			expected: 2 * time.Second,
		},
		{
			name:     "attempt below one clamps",
			strategy: NewExponential(100 * time.Millisecond),
			attempt:  0,
			expected: 100 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.strategy.NextDelay(tt.attempt))
		})
	}
}

func TestLinearBackoff(t *testing.T) {
	b := NewLinear(100*time.Millisecond, 50*time.Millisecond, WithMaxDelay(220*time.Millisecond))

	assert.Equal(t, 100*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 150*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 200*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, 220*time.Millisecond, b.NextDelay(4))
}

func TestJitterStaysInRange(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		full := FullJitter(base)
		assert.GreaterOrEqual(t, full, time.Duration(0))
		assert.Less(t, full, base)

		equal := EqualJitter(base)
		assert.GreaterOrEqual(t, equal, base/2)
		assert.Less(t, equal, base)
	}
}

func TestDecorrelatedJitterRespectsBounds(t *testing.T) {
	base := 10 * time.Millisecond
	capDelay := 200 * time.Millisecond
	b := NewDecorrelatedJitter(base, capDelay)

	for attempt := 1; attempt <= 50; attempt++ {
		delay := b.NextDelay(attempt)
		assert.GreaterOrEqual(t, delay, base)
		assert.LessOrEqual(t, delay, capDelay)
	}

	b.Reset()
	first := b.NextDelay(1)
	assert.LessOrEqual(t, first, 3*base)
}

func TestPolicyAttemptLimit(t *testing.T) {
	p := NewPolicy(3, NewFixed(0))
	err := errors.New("transient")

	assert.True(t, p.ShouldRetry(err, 1))
	assert.True(t, p.ShouldRetry(err, 2))
	assert.False(t, p.ShouldRetry(err, 3))
	assert.Equal(t, 3, p.MaxAttempts())
}

func TestDefaultCondition(t *testing.T) {
	assert.False(t, DefaultCondition(nil))
	assert.False(t, DefaultCondition(context.Canceled))
	assert.False(t, DefaultCondition(context.DeadlineExceeded))
	assert.False(t, DefaultCondition(types.ErrPoolClosed))
	assert.False(t, DefaultCondition(types.NewTaskError("op", "", types.ErrPoolClosed)))
	assert.True(t, DefaultCondition(errors.New("transient")))
	assert.True(t, DefaultCondition(types.ErrTimeout))
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	e := NewExecutor(NewPolicy(5, NewFixed(time.Millisecond)))

	calls := 0
	v, err := Do(e, context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not yet")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)

	stats := e.Stats()
	assert.Equal(t, int64(3), stats.Attempts)
	assert.Equal(t, int64(2), stats.Retries)
	assert.Equal(t, int64(1), stats.Successes)
	assert.Equal(t, int64(0), stats.Failures)
	assert.Equal(t, 2*time.Millisecond, stats.TotalDelay)
}

func TestDoExhaustsAttempts(t *testing.T) {
	e := NewExecutor(NewPolicy(3, NewFixed(0)))

	cause := errors.New("always broken")
	calls := 0
	_, err := Do(e, context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, cause
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, cause)

	var taskErr *types.TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, 3, taskErr.Context["retry_attempts"])
	assert.Equal(t, 3, taskErr.Context["max_attempts"])
	assert.Equal(t, int64(1), e.Stats().Failures)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	e := NewExecutor(NewPolicy(5, NewFixed(0)))

	calls := 0
	_, err := Do(e, context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, types.ErrPoolClosed
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPoolClosed)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	e := NewExecutor(NewPolicy(100, NewFixed(10*time.Millisecond)))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(e, ctx, func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("transient")
		})
		done <- err
	}()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDoCancelledBeforeFirstAttempt(t *testing.T) {
	e := NewExecutor(NewPolicy(3, NewFixed(0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(e, ctx, func(ctx context.Context) (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestSubmitRetriesOnPool(t *testing.T) {
	p := pool.New(1)
	defer p.Close()
	e := NewExecutor(NewPolicy(4, NewFixed(time.Millisecond)))

	calls := 0
	fut := Submit(e, context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("flaky")
		}
		return 99, nil
	})

	require.True(t, fut.WaitTimeout(5*time.Second))
	v, err := fut.Get()
	require.NoError(t, err)
	assert.Equal(t, 99, v)
	assert.Equal(t, 3, calls)
}

func TestSubmitOnClosedPool(t *testing.T) {
	p := pool.New(1)
	require.NoError(t, p.Close())
	e := NewExecutor(NewPolicy(2, NewFixed(0)))

	fut := Submit(e, context.Background(), p, func(ctx context.Context) (int, error) {
		return 1, nil
	})

	require.True(t, fut.WaitTimeout(0))
	_, err := fut.Get()
	assert.ErrorIs(t, err, types.ErrPoolClosed)
}
