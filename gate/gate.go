// Package gate provides a level-triggered open/closed gate for coordinating
// goroutines: opening the gate releases every goroutine currently blocked in
// Wait, and any waiter that arrives while the gate is open passes straight
// through until the gate is closed again.
//
// This is a manual-reset event, not a one-shot signal: the open state is a
// level, and Close re-arms the gate for the next round.
//
// A gate that is never opened blocks its waiters forever. No deadlock
// detection is provided; eventually calling Open on a gate with waiters is
// the caller's responsibility.
package gate

import (
	"context"
	"sync"
	"time"
)

// Gate is a level-triggered binary gate. New gates start Closed.
//
// The implementation swaps a channel per Close: waiters block on the current
// channel, Open closes it (releasing everyone at once), and Close installs a
// fresh channel for the next generation of waiters. Waiters holding the old
// channel still pass, which is exactly the level semantics: they arrived
// while the gate was open.
type Gate struct {
	mu   sync.Mutex
	ch   chan struct{}
	open bool
}

// New returns a Gate in the Closed state.
func New() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Open opens the gate, releasing all currently blocked waiters. Waiters
// arriving afterwards return immediately until the next Close. Opening an
// already-open gate is a no-op.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open {
		return
	}
	g.open = true
	close(g.ch)
}

// Close re-arms the gate so that subsequent Wait calls block. Closing an
// already-closed gate is a no-op.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open {
		return
	}
	g.open = false
	g.ch = make(chan struct{})
}

// IsOpen reports the gate's current level without blocking.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// barrier snapshots the channel for the current generation. If the gate is
// open the returned channel is already closed and receiving on it does not
// block.
func (g *Gate) barrier() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ch
}

// Wait blocks the caller while the gate is Closed and returns once it is
// Open. If the gate is already open, Wait returns immediately.
func (g *Gate) Wait() {
	<-g.barrier()
}

// WaitTimeout waits like Wait but gives up after d, returning false without
// altering the gate's state. A non-positive d waits without a deadline.
// Timing out is an expected outcome, not a fault.
func (g *Gate) WaitTimeout(d time.Duration) bool {
	if d <= 0 {
		g.Wait()
		return true
	}

	barrier := g.barrier()
	select {
	case <-barrier:
		return true
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-barrier:
		return true
	case <-timer.C:
		return false
	}
}

// WaitContext waits like Wait but honors ctx cancellation, returning false
// if ctx expires first.
func (g *Gate) WaitContext(ctx context.Context) bool {
	select {
	case <-g.barrier():
		return true
	case <-ctx.Done():
		return false
	}
}
