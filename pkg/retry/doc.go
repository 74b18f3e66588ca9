// Package retry provides retry policies, backoff strategies, and an executor
// that runs functions under them, either inline or on a worker pool.
//
// Backoff strategies:
//   - Fixed: same delay before every retry
//   - Exponential: delay grows by a multiplier, capped
//   - Linear: delay grows by a fixed increment, capped
//   - DecorrelatedJitter: AWS-style decorrelated jitter
//
// Jitter functions (FullJitter, EqualJitter) can be attached to any of the
// stateless strategies through WithJitterFunc.
//
// Basic usage:
//
//	policy := retry.NewPolicy(3, retry.NewExponential(100*time.Millisecond))
//	executor := retry.NewExecutor(policy)
//
//	result, err := retry.Do(executor, ctx, func(ctx context.Context) (string, error) {
//		return fetchSomething(ctx)
//	})
//
// Running the retry sequence on a pool instead of the calling goroutine:
//
//	fut := retry.Submit(executor, ctx, p, func(ctx context.Context) (string, error) {
//		return fetchSomething(ctx)
//	})
//	value, err := fut.Get()
//
// Custom retry conditions:
//
//	policy := retry.NewPolicy(3, retry.NewFixed(100*time.Millisecond),
//		retry.WithCondition(func(err error) bool {
//			return isTemporary(err)
//		}))
//
// Backoff waits go through the executor's clock, set with WithClock, so
// tests can substitute a mock. All exported types are safe for concurrent
// use.
package retry
