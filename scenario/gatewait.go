package scenario

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/threadworks/harness/gate"
	"github.com/threadworks/harness/worker"
)

// runGate demonstrates "worker B must not proceed until worker A reaches a
// checkpoint": a waiter is started while the gate is closed, is observed to
// make no progress, and is released the moment the gate opens. A second wait
// on the now-open gate returns immediately.
func runGate(ctx context.Context, cfg *Config) (Result, error) {
	var res Result

	g := gate.New()
	var progress atomic.Int64

	waiter := worker.New(func(ctx context.Context) error {
		g.Wait()
		progress.Add(1)
		return nil
	}, worker.WithName("gate-waiter"))

	if err := waiter.Start(ctx); err != nil {
		return res, err
	}

	// Give the waiter ample room to run into the closed gate.
	time.Sleep(50 * time.Millisecond)
	if p := progress.Load(); p != 0 {
		return res, fmt.Errorf("gate: waiter progressed to %d before Open", p)
	}
	res.notef("waiter blocked on closed gate, progress still 0 after 50ms")

	opened := time.Now()
	g.Open()
	if !waiter.JoinTimeout(2 * time.Second) {
		return res, fmt.Errorf("gate: waiter did not finish after Open")
	}
	if err := waiter.Fault(); err != nil {
		return res, err
	}
	if p := progress.Load(); p != 1 {
		return res, fmt.Errorf("gate: progress %d after Open, want 1", p)
	}
	res.notef("waiter released %v after Open", time.Since(opened).Round(time.Microsecond))

	// Level semantics: the gate stays open, so a late waiter never blocks.
	if !g.WaitTimeout(time.Millisecond) {
		return res, fmt.Errorf("gate: wait on open gate did not return immediately")
	}
	res.notef("subsequent wait on the open gate returned immediately")
	return res, nil
}
