package verification

import (
	"sync"
	"time"

	"frontdesk-backend/internal/clock"
)

// ResendCooldownSeconds gates how soon a verification code may be re-sent
// after a gateway-confirmed send.
const ResendCooldownSeconds = 60

// Cooldown is a single countdown value in seconds, decremented once per
// elapsed second while active. It is ephemeral: never persisted, reset on
// construction, and cleared on every successful verify or channel reset.
type Cooldown struct {
	clk clock.Clock

	mu        sync.Mutex
	remaining int
	stop      chan struct{}
}

func NewCooldown(clk clock.Clock) *Cooldown {
	return &Cooldown{clk: clk}
}

// Start replaces the remaining value and begins ticking. Restarting while
// active replaces, never adds to, the countdown.
func (c *Cooldown) Start(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seconds <= 0 {
		c.clearLocked()
		return
	}

	c.remaining = seconds
	if c.stop != nil {
		// Tick loop already running; it picks up the new value.
		return
	}

	stop := make(chan struct{})
	c.stop = stop
	go c.tickLoop(stop)
}

func (c *Cooldown) tickLoop(stop chan struct{}) {
	ticker := c.clk.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			c.mu.Lock()
			if c.remaining > 0 {
				c.remaining--
			}
			if c.remaining == 0 {
				// Reaching zero stops ticking with no further side effect.
				if c.stop == stop {
					c.stop = nil
				}
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// Remaining returns the current countdown value in seconds.
func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Active reports whether the countdown is still running.
func (c *Cooldown) Active() bool {
	return c.Remaining() > 0
}

// Clear stops the countdown and resets it to zero.
func (c *Cooldown) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Cooldown) clearLocked() {
	c.remaining = 0
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}
