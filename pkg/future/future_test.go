package future

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/gotaskgraph/pkg/types"
)

func TestNewTaskCompletesFuture(t *testing.T) {
	run, fut := NewTask(func() int { return 42 })

	_, err := fut.TryGet()
	assert.ErrorIs(t, err, types.ErrFutureNotReady)

	require.NoError(t, run())

	value, err := fut.Get()
	assert.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestWaitTimeout(t *testing.T) {
	run, fut := NewTask(func() string { return "done" })

	assert.False(t, fut.WaitTimeout(10*time.Millisecond))

	go run()

	require.True(t, fut.WaitTimeout(time.Second))
	value, err := fut.Get()
	assert.NoError(t, err)
	assert.Equal(t, "done", value)
}

func TestPanicBecomesTaskError(t *testing.T) {
	run, fut := NewTask(func() int {
		panic("boom")
	})

	err := run()
	require.Error(t, err)

	value, futErr := fut.Get()
	assert.Equal(t, 0, value)
	require.Error(t, futErr)

	var taskErr *types.TaskError
	require.ErrorAs(t, futErr, &taskErr)
	assert.Contains(t, taskErr.Error(), "boom")
	assert.Contains(t, taskErr.Context["stack_trace"], "goroutine")
}

func TestPanicWithErrorValue(t *testing.T) {
	cause := errors.New("broken invariant")
	run, fut := NewTask(func() int {
		panic(cause)
	})

	require.Error(t, run())

	_, err := fut.Get()
	assert.ErrorIs(t, err, cause)
}

func TestNewCompleterIsIdempotent(t *testing.T) {
	fut, complete := New[int]()

	_, err := fut.TryGet()
	assert.ErrorIs(t, err, types.ErrFutureNotReady)

	complete(5, nil)
	complete(9, errors.New("late"))

	v, err := fut.Get()
	assert.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestFailed(t *testing.T) {
	fut := Failed[int](types.ErrPoolClosed)

	require.True(t, fut.WaitTimeout(0))
	_, err := fut.Get()
	assert.ErrorIs(t, err, types.ErrPoolClosed)
}

func TestDoneChannel(t *testing.T) {
	run, fut := NewTask(func() struct{} { return struct{}{} })

	select {
	case <-fut.Done():
		t.Fatal("future ready before task ran")
	default:
	}

	require.NoError(t, run())

	select {
	case <-fut.Done():
	case <-time.After(time.Second):
		t.Fatal("future not ready after task ran")
	}
}
