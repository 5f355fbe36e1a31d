package scenario

import (
	"context"
	"time"

	"github.com/threadworks/harness/worker"
)

// runPriority gives five workers identical CPU-bound work under the five
// priority hints and records the order in which they finish. The order is
// observational only: priority influences relative CPU share at best, and
// the runtime scheduler owes us nothing. No assertion is made on it.
func runPriority(ctx context.Context, cfg *Config) (Result, error) {
	var res Result

	priorities := []worker.Priority{
		worker.Lowest, worker.Low, worker.Normal, worker.High, worker.Highest,
	}

	type finish struct {
		priority worker.Priority
		elapsed  time.Duration
	}
	order := make(chan finish, len(priorities))

	start := time.Now()
	handles := make([]*worker.Handle, 0, len(priorities))
	for _, p := range priorities {
		h := worker.New(func(ctx context.Context) error {
			burnCPU(30 * time.Millisecond)
			order <- finish{priority: p, elapsed: time.Since(start)}
			return nil
		},
			worker.WithName("prio-"+p.String()),
			worker.WithPriority(p),
		)
		handles = append(handles, h)
	}

	for _, h := range handles {
		if err := h.Start(ctx); err != nil {
			return res, err
		}
	}
	for _, h := range handles {
		if err := h.Join(); err != nil {
			return res, err
		}
	}
	close(order)

	res.notef("equal CPU-bound work per priority hint; completion order below is observational")
	pos := 1
	for f := range order {
		res.notef("#%d %-8s finished at %v", pos, f.priority, f.elapsed.Round(time.Millisecond))
		pos++
	}
	return res, nil
}

// burnCPU does arithmetic for roughly d of wall time without sleeping, so
// the work actually competes for CPU.
func burnCPU(d time.Duration) {
	deadline := time.Now().Add(d)
	x := uint64(1)
	for time.Now().Before(deadline) {
		for range 1024 {
			x = x*2862933555777941757 + 3037000493
		}
	}
	_ = x
}
