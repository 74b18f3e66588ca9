// Package testutils provides test helpers shared across packages.
package testutils

import (
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/jzx17/gotaskgraph/pkg/types"
)

// NewMockClock creates a mock clock for testing.
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper adapts a quartz mock to the narrow types.Clock surface the
// toolkit consumes. Time never advances unless the test advances the mock,
// so durations read zero and tickers stay silent by default.
type ClockWrapper struct {
	mock *quartz.Mock
}

// NewClockWrapper creates a ClockWrapper around mock.
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{mock: mock}
}

func (c *ClockWrapper) Now() time.Time {
	return c.mock.Now()
}

func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.mock.Since(t)
}

func (c *ClockWrapper) After(d time.Duration) <-chan time.Time {
	return c.mock.NewTimer(d).C
}

func (c *ClockWrapper) NewTicker(d time.Duration) types.Ticker {
	return tickerWrapper{ticker: c.mock.NewTicker(d)}
}

type tickerWrapper struct {
	ticker *quartz.Ticker
}

func (t tickerWrapper) C() <-chan time.Time {
	return t.ticker.C
}

func (t tickerWrapper) Stop() {
	t.ticker.Stop()
}

func (t tickerWrapper) Reset(d time.Duration) {
	t.ticker.Reset(d)
}
