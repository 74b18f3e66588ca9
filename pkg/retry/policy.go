package retry

import (
	"context"
	"errors"
	"time"

	"github.com/jzx17/gotaskgraph/pkg/types"
)

// Condition decides whether an error is worth retrying.
type Condition func(error) bool

// DefaultCondition retries every failure except context cancellation and
// pool shutdown, which no number of attempts will cure.
func DefaultCondition(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, types.ErrPoolClosed)
}

// Policy pairs an attempt limit and retry condition with a backoff strategy.
type Policy struct {
	maxAttempts int
	condition   Condition
	strategy    Strategy
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithCondition replaces the default retry condition.
func WithCondition(condition Condition) PolicyOption {
	return func(p *Policy) { p.condition = condition }
}

// NewPolicy creates a policy allowing maxAttempts total attempts, spaced by
// strategy.
func NewPolicy(maxAttempts int, strategy Strategy, opts ...PolicyOption) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	p := &Policy{
		maxAttempts: maxAttempts,
		condition:   DefaultCondition,
		strategy:    strategy,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShouldRetry reports whether another attempt should follow a failure on the
// given attempt number.
func (p *Policy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.maxAttempts {
		return false
	}
	return p.condition(err)
}

// NextDelay returns the wait before the retry following the given attempt.
func (p *Policy) NextDelay(attempt int) time.Duration {
	return p.strategy.NextDelay(attempt)
}

// MaxAttempts returns the total attempt limit.
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}
