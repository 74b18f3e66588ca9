// Package errors provides composable strategies for the pool's error
// handler hook. A strategy either consumes a failure, returning nil, or
// passes it along for the next handler in a chain.
package errors

import (
	"sync/atomic"

	"github.com/jzx17/gotaskgraph/pkg/logging"
	"github.com/jzx17/gotaskgraph/pkg/types"
)

// FailFast passes every error through unchanged.
func FailFast() types.ErrorHandler {
	return func(err error) error {
		return err
	}
}

// IgnoreMatching consumes errors the predicate accepts and passes the rest
// through.
func IgnoreMatching(match func(error) bool) types.ErrorHandler {
	return func(err error) error {
		if match(err) {
			return nil
		}
		return err
	}
}

// LogTo writes every error to w and passes it through.
func LogTo(w logging.Writer) types.ErrorHandler {
	return func(err error) error {
		logging.To(w).Printf("task failed: %v", err).Close()
		return err
	}
}

// Chain runs handlers in order until one consumes the error. The chain
// returns whatever the last handler left unconsumed.
func Chain(handlers ...types.ErrorHandler) types.ErrorHandler {
	return func(err error) error {
		for _, h := range handlers {
			if err = h(err); err == nil {
				return nil
			}
		}
		return err
	}
}

// Counter counts failures across goroutines.
type Counter struct {
	n int64
}

// Handler returns an ErrorHandler that counts and passes errors through.
func (c *Counter) Handler() types.ErrorHandler {
	return func(err error) error {
		atomic.AddInt64(&c.n, 1)
		return err
	}
}

// Count returns the number of failures observed so far.
func (c *Counter) Count() int64 {
	return atomic.LoadInt64(&c.n)
}
