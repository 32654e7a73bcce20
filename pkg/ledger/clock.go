package ledger

import "time"

// Clock supplies the trusted timestamp expiry checks are evaluated against.
type Clock interface {
	Unix() int64
}

// SystemClock reads the host's wall clock.
type SystemClock struct{}

func (SystemClock) Unix() int64 {
	return time.Now().Unix()
}

// ManualClock is a settable clock for tests and simulations.
type ManualClock struct {
	now int64
}

func NewManualClock(now int64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Unix() int64 {
	return c.now
}

func (c *ManualClock) Set(now int64) {
	c.now = now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.now += int64(d / time.Second)
}
