package verification

import (
	"sync"
	"testing"
	"time"

	"frontdesk-backend/internal/clock"

	"github.com/stretchr/testify/require"
)

// fakeClock hands out tickers that fire only when the test says so.
type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

func (c *fakeClock) Now() time.Time { return time.Now() }

func (c *fakeClock) NewTicker(_ time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

// tick fires every live ticker once and waits for the countdown goroutine to
// pick it up.
func (c *fakeClock) tick() {
	// The tick loop registers its ticker from a freshly spawned goroutine,
	// which may not have run yet; wait for at least one ticker to exist.
	deadline := time.Now().Add(time.Second)
	var tickers []*fakeTicker
	for {
		c.mu.Lock()
		tickers = append([]*fakeTicker(nil), c.tickers...)
		c.mu.Unlock()
		if len(tickers) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	for _, t := range tickers {
		select {
		case t.ch <- time.Now():
		case <-time.After(100 * time.Millisecond):
			// Tick loop already stopped; nothing left to advance.
		}
	}
}

func waitRemaining(t *testing.T, c *Cooldown, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Remaining() == want
	}, time.Second, time.Millisecond, "cooldown should reach %d", want)
}

func TestCooldownCountsDownToZero(t *testing.T) {
	clk := &fakeClock{}
	c := NewCooldown(clk)

	c.Start(3)
	require.Equal(t, 3, c.Remaining())
	require.True(t, c.Active())

	clk.tick()
	waitRemaining(t, c, 2)

	clk.tick()
	clk.tick()
	waitRemaining(t, c, 0)
	require.False(t, c.Active())
}

func TestCooldownRestartReplacesRemaining(t *testing.T) {
	clk := &fakeClock{}
	c := NewCooldown(clk)

	c.Start(5)
	clk.tick()
	waitRemaining(t, c, 4)

	c.Start(60)
	require.Equal(t, 60, c.Remaining())

	clk.tick()
	waitRemaining(t, c, 59)
}

func TestCooldownClearStopsCountdown(t *testing.T) {
	clk := &fakeClock{}
	c := NewCooldown(clk)

	c.Start(30)
	c.Clear()
	require.Equal(t, 0, c.Remaining())
	require.False(t, c.Active())

	// A tick after Clear must not resurrect the countdown.
	clk.tick()
	require.Equal(t, 0, c.Remaining())
}

func TestCooldownStartZeroIsNoop(t *testing.T) {
	clk := &fakeClock{}
	c := NewCooldown(clk)

	c.Start(0)
	require.False(t, c.Active())

	c.Start(-5)
	require.False(t, c.Active())
}
