package guard

import "sync/atomic"

// Counter is a shared integer defended by exactly one Guard. All correct
// mutations go through the guard; the Unguarded* methods exist solely so the
// harness can demonstrate what goes wrong without it.
//
// The cell is a single atomic word so that deliberately unguarded access
// stays visible to the race detector as a logic bug (lost updates) rather
// than a torn memory access: each load and store is individually atomic, but
// the compound read-modify-write is only atomic under the guard.
type Counter struct {
	g *Guard
	v atomic.Int64
}

// NewCounter returns a Counter owned by g. Passing nil allocates a private
// guard, but the intended use is an explicitly constructed pair whose
// lifetime the caller owns.
func NewCounter(g *Guard) *Counter {
	if g == nil {
		g = New()
	}
	return &Counter{g: g}
}

// Guard returns the guard defending this counter, so callers can run their
// own critical sections against the same exclusion domain.
func (c *Counter) Guard() *Guard {
	return c.g
}

// Inc adds one to the counter inside the guard's critical section.
func (c *Counter) Inc() {
	c.g.Do(func() {
		c.v.Store(c.v.Load() + 1)
	})
}

// Add adds delta inside the guard's critical section.
func (c *Counter) Add(delta int64) {
	c.g.Do(func() {
		c.v.Store(c.v.Load() + delta)
	})
}

// Value reads the counter inside the guard, observing the latest committed
// write from any goroutine.
func (c *Counter) Value() int64 {
	return Locked(c.g, func() int64 {
		return c.v.Load()
	})
}

// Reset sets the counter back to zero under the guard.
func (c *Counter) Reset() {
	c.g.Do(func() {
		c.v.Store(0)
	})
}

// RacyValue reads the counter without taking the guard. The result may be
// stale or mid-update relative to concurrent guarded mutations.
func (c *Counter) RacyValue() int64 {
	return c.v.Load()
}

// UnguardedInc performs the increment without the guard. ANTI-PATTERN: the
// read-modify-write is not atomic, so concurrent callers lose updates and
// the final value falls below the expected sum. Kept only for the negative
// demonstration scenario and its test.
func (c *Counter) UnguardedInc() {
	c.v.Store(c.v.Load() + 1)
}
