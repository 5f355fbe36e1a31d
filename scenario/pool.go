package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/threadworks/harness/dispatch"
	"github.com/threadworks/harness/worker"
)

// runPool submits K units to a pool of P<K workers, making every Faults-th
// unit panic on purpose. All K tokens must complete: exactly the induced
// subset carries a captured fault, the rest carry their results, and the
// pool must keep accepting submissions afterwards because no fault may cost
// it a worker.
func runPool(ctx context.Context, cfg *Config) (Result, error) {
	var res Result

	d := dispatch.New(
		dispatch.WithWorkers(cfg.PoolSize),
		dispatch.WithLogger(cfg.Log),
	)
	if err := d.Start(ctx); err != nil {
		return res, err
	}
	defer func() { _ = d.Shutdown(5 * time.Second) }()

	faulty := induceEvery(cfg.Tasks, cfg.Faults)
	tokens := make([]*dispatch.Token, cfg.Tasks)
	for i := range cfg.Tasks {
		label := fmt.Sprintf("unit-%d", i)
		shouldPanic := faulty[i]
		tok, err := d.Submit(label, func(ctx context.Context) error {
			if shouldPanic {
				panic(fmt.Sprintf("induced fault in %s", label))
			}
			return nil
		})
		if err != nil {
			return res, err
		}
		tokens[i] = tok
	}

	var gotFaults, gotOK int
	for i, tok := range tokens {
		err := tok.AwaitTimeout(5 * time.Second)
		if errors.Is(err, context.DeadlineExceeded) {
			return res, fmt.Errorf("pool: token %d never completed", i)
		}

		var f *worker.Fault
		switch {
		case errors.As(err, &f):
			gotFaults++
			if !faulty[i] {
				return res, fmt.Errorf("pool: unit %d faulted without an induced fault: %v", i, err)
			}
		case err != nil:
			return res, fmt.Errorf("pool: unit %d: unexpected error: %v", i, err)
		default:
			gotOK++
			if faulty[i] {
				return res, fmt.Errorf("pool: unit %d swallowed its induced fault", i)
			}
		}
	}

	wantFaults := countTrue(faulty)
	if gotFaults != wantFaults || gotOK != cfg.Tasks-wantFaults {
		return res, fmt.Errorf("pool: %d faults / %d ok, want %d / %d",
			gotFaults, gotOK, wantFaults, cfg.Tasks-wantFaults)
	}

	// The pool must still be alive: every worker that ran a faulting unit
	// looped back to the queue.
	probe, err := d.Submit("post-fault-probe", func(ctx context.Context) error { return nil })
	if err != nil {
		return res, err
	}
	if err := probe.AwaitTimeout(5 * time.Second); err != nil {
		return res, fmt.Errorf("pool: probe after faults failed: %v", err)
	}

	stats := d.Stats()
	res.notef("%d units on %d workers: %d faulted, %d ok, all tokens completed",
		cfg.Tasks, cfg.PoolSize, gotFaults, gotOK)
	res.notef("pool still accepting work after faults (completed=%d, faulted=%d)",
		stats.Completed, stats.Faulted)
	return res, nil
}

// induceEvery marks roughly `faults` units spread across k submissions.
func induceEvery(k, faults int) []bool {
	marked := make([]bool, k)
	if faults <= 0 || k == 0 {
		return marked
	}
	if faults > k {
		faults = k
	}
	step := k / faults
	if step == 0 {
		step = 1
	}
	for i := 0; i < k && countTrue(marked) < faults; i += step {
		marked[i] = true
	}
	return marked
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
