package scenario

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/threadworks/harness/gate"
	"github.com/threadworks/harness/worker"
)

// runSpinwait is the labeled anti-pattern: one worker busy-waits on an
// atomic flag, burning CPU on every poll, while another blocks on a gate and
// burns nothing. Production paths in this module use blocking waits
// exclusively; this scenario exists only to show the cost of the loop.
func runSpinwait(ctx context.Context, cfg *Config) (Result, error) {
	var res Result

	var flag atomic.Bool
	var spins atomic.Int64

	// ANTI-PATTERN: polls the flag in a loop instead of blocking. Do not
	// copy this; it is here to be measured.
	spinner := worker.New(func(ctx context.Context) error {
		for !flag.Load() {
			spins.Add(1)
		}
		return nil
	}, worker.WithName("spin-waiter"))

	g := gate.New()
	blocker := worker.New(func(ctx context.Context) error {
		g.Wait()
		return nil
	}, worker.WithName("block-waiter"))

	if err := spinner.Start(ctx); err != nil {
		return res, err
	}
	if err := blocker.Start(ctx); err != nil {
		return res, err
	}

	time.Sleep(20 * time.Millisecond)
	flag.Store(true)
	g.Open()

	for _, h := range []*worker.Handle{spinner, blocker} {
		if !h.JoinTimeout(2 * time.Second) {
			return res, fmt.Errorf("spinwait: %s never finished", h.Name())
		}
	}

	res.notef("busy-wait burned %d polls in ~20ms; the blocking gate waiter burned 0", spins.Load())
	res.notef("anti-pattern shown for contrast; production paths block instead of spinning")
	return res, nil
}
