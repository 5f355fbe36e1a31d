package scenario

import (
	"context"
	"fmt"

	"github.com/threadworks/harness/worker"
)

// runInterleave starts two foreground workers that each emit Lines tags into
// a shared channel with no coordination at all. The merge order differs from
// run to run; the total is always 2*Lines. Nothing here is a race: the
// channel is safe, only the ordering is left to the scheduler.
func runInterleave(ctx context.Context, cfg *Config) (Result, error) {
	var res Result

	total := 2 * cfg.Lines
	merged := make(chan string, total)

	emit := func(tag string) worker.Unit {
		return func(ctx context.Context) error {
			for i := range cfg.Lines {
				merged <- fmt.Sprintf("%s%d", tag, i)
			}
			return nil
		}
	}

	a := worker.New(emit("A"), worker.WithName("emitter-a"))
	b := worker.New(emit("B"), worker.WithName("emitter-b"))

	for _, h := range []*worker.Handle{a, b} {
		if err := h.Start(ctx); err != nil {
			return res, err
		}
	}
	if err := a.Join(); err != nil {
		return res, err
	}
	if err := b.Join(); err != nil {
		return res, err
	}
	close(merged)

	var lines []string
	switches := 0
	var prev byte
	for line := range merged {
		lines = append(lines, line)
		if prev != 0 && line[0] != prev {
			switches++
		}
		prev = line[0]
	}

	if len(lines) != total {
		return res, fmt.Errorf("interleave: emitted %d lines, want %d", len(lines), total)
	}

	res.notef("total output deterministic: %d lines from 2 workers", total)
	res.notef("interleaving nondeterministic: %d writer switches this run", switches)
	res.notef("first lines: %v", head(lines, 8))
	return res, nil
}

func head(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
