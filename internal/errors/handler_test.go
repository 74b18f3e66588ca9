package errors

import (
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/gotaskgraph/pkg/pool"
	"github.com/jzx17/gotaskgraph/pkg/types"
)

func TestFailFastPassesThrough(t *testing.T) {
	err := stderrors.New("boom")
	assert.Equal(t, err, FailFast()(err))
}

func TestIgnoreMatching(t *testing.T) {
	handler := IgnoreMatching(func(err error) bool {
		return stderrors.Is(err, types.ErrTimeout)
	})

	assert.NoError(t, handler(types.ErrTimeout))
	other := stderrors.New("other")
	assert.Equal(t, other, handler(other))
}

type recordingWriter struct {
	mu    sync.Mutex
	lines []string
}

func (w *recordingWriter) Write(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, s)
}

func TestLogToWritesAndPassesThrough(t *testing.T) {
	w := &recordingWriter{}
	err := stderrors.New("went wrong")

	assert.Equal(t, err, LogTo(w)(err))

	require.Len(t, w.lines, 1)
	assert.True(t, strings.Contains(w.lines[0], "task failed: went wrong"))
	assert.True(t, strings.HasSuffix(w.lines[0], "\n"))
}

func TestChainStopsAtConsumer(t *testing.T) {
	var counter Counter
	handler := Chain(
		counter.Handler(),
		IgnoreMatching(func(error) bool { return true }),
		FailFast(),
	)

	assert.NoError(t, handler(stderrors.New("swallowed")))
	assert.Equal(t, int64(1), counter.Count())
}

func TestChainPassesUnconsumed(t *testing.T) {
	var first, second Counter
	handler := Chain(first.Handler(), second.Handler())

	err := stderrors.New("still failing")
	assert.Equal(t, err, handler(err))
	assert.Equal(t, int64(1), first.Count())
	assert.Equal(t, int64(1), second.Count())
}

func TestCounterOnPool(t *testing.T) {
	var counter Counter
	p := pool.New(2, pool.WithErrorHandler(counter.Handler()))

	good := pool.Submit(p, func() int { return 1 })
	bad := pool.Submit(p, func() int { panic("kaboom") })
	require.True(t, good.WaitTimeout(5*time.Second))
	require.True(t, bad.WaitTimeout(5*time.Second))
	require.NoError(t, p.Close())

	assert.Equal(t, int64(1), counter.Count())
}
