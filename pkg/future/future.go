// Package future provides one-shot completion signals for asynchronously
// executed functions.
//
// A Future is created together with the erased callable that completes it,
// via NewTask. The callable recovers panics in the wrapped function and
// records them as the future's error, so a misbehaving task can never leave
// its waiters hanging nor kill the goroutine running it.
package future

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/gotaskgraph/pkg/types"
)

// taskIDCounter is the global task ID counter
var taskIDCounter int64

// Future carries the eventual result of a task. It is completed exactly once.
type Future[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// Done returns a channel closed when the result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available.
func (f *Future[R]) Wait() {
	<-f.done
}

// WaitTimeout blocks until the result is available or the duration elapses.
// It reports whether the future completed in time.
func (f *Future[R]) WaitTimeout(d time.Duration) bool {
	select {
	case <-f.done:
		return true
	case <-time.After(d):
		return false
	}
}

// Get blocks until the result is available and returns it.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// TryGet returns the result if it is already available, or
// types.ErrFutureNotReady.
func (f *Future[R]) TryGet() (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
		var zero R
		return zero, types.ErrFutureNotReady
	}
}

func (f *Future[R]) complete(value R, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// New creates an incomplete future and the function that completes it. The
// completer is idempotent; only the first call takes effect.
func New[R any]() (*Future[R], func(R, error)) {
	f := &Future[R]{done: make(chan struct{})}
	var once sync.Once
	return f, func(value R, err error) {
		once.Do(func() { f.complete(value, err) })
	}
}

// Failed returns a future that already carries err.
func Failed[R any](err error) *Future[R] {
	f := &Future[R]{done: make(chan struct{})}
	var zero R
	f.complete(zero, err)
	return f
}

// NewTask packages fn into an erased one-shot callable wired to a Future.
// Running the callable executes fn, completes the future with its return
// value, and returns the task error, if any, for the executor's bookkeeping.
// A panic in fn is recovered and surfaced as a *types.TaskError carrying the
// stack trace.
func NewTask[R any](fn func() R) (func() error, *Future[R]) {
	f := &Future[R]{done: make(chan struct{})}
	id := fmt.Sprintf("task-%d", atomic.AddInt64(&taskIDCounter, 1))

	run := func() (err error) {
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
				err = types.NewTaskError("task", id, cause).
					WithContext("stack_trace", string(buf[:n]))

				var zero R
				f.complete(zero, err)
			}
		}()

		f.complete(fn(), nil)
		return nil
	}
	return run, f
}
