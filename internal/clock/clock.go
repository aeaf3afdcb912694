package clock

import "time"

// Clock abstracts wall-clock access so countdown logic is testable without
// real delays.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the injectable subset of time.Ticker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real is the production clock backed by the time package.
type Real struct{}

func New() Real {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time {
	return r.t.C
}

func (r realTicker) Stop() {
	r.t.Stop()
}
