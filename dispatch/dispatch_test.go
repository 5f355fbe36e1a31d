package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/threadworks/harness/worker"
)

func startDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()

	d := New(opts...)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { _ = d.Shutdown(5 * time.Second) })
	return d
}

func TestDispatcher_Lifecycle(t *testing.T) {
	t.Run("submit before start is rejected", func(t *testing.T) {
		d := New()
		_, err := d.Submit("early", func(ctx context.Context) error { return nil })
		if !errors.Is(err, ErrNotStarted) {
			t.Errorf("expected ErrNotStarted, got %v", err)
		}
	})

	t.Run("shutdown before start is rejected", func(t *testing.T) {
		d := New()
		if err := d.Shutdown(time.Second); !errors.Is(err, ErrNotStarted) {
			t.Errorf("expected ErrNotStarted, got %v", err)
		}
	})

	t.Run("start is single-use", func(t *testing.T) {
		d := startDispatcher(t, WithWorkers(2))
		if err := d.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("expected ErrAlreadyStarted, got %v", err)
		}
	})

	t.Run("submit after shutdown is rejected", func(t *testing.T) {
		d := New(WithWorkers(2))
		if err := d.Start(context.Background()); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if err := d.Shutdown(5 * time.Second); err != nil {
			t.Fatalf("shutdown failed: %v", err)
		}

		_, err := d.Submit("late", func(ctx context.Context) error { return nil })
		if !errors.Is(err, ErrShutdown) {
			t.Errorf("expected ErrShutdown, got %v", err)
		}
	})
}

func TestDispatcher_ExecutesSubmissions(t *testing.T) {
	const n = 50

	d := startDispatcher(t, WithWorkers(4))

	var ran atomic.Int64
	tokens := make([]*Token, 0, n)
	for i := range n {
		tok, err := d.Submit(fmt.Sprintf("unit-%d", i), func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		tokens = append(tokens, tok)
	}

	for i, tok := range tokens {
		if err := tok.AwaitTimeout(5 * time.Second); err != nil {
			t.Fatalf("unit %d: %v", i, err)
		}
	}
	if got := ran.Load(); got != n {
		t.Errorf("expected %d executions, got %d", n, got)
	}
}

func TestDispatcher_FaultsAreContained(t *testing.T) {
	const (
		total   = 20
		workers = 4
	)

	d := startDispatcher(t, WithWorkers(workers))

	tokens := make([]*Token, 0, total)
	for i := range total {
		faulty := i%5 == 0
		tok, err := d.Submit(fmt.Sprintf("unit-%d", i), func(ctx context.Context) error {
			if faulty {
				panic(fmt.Sprintf("induced failure in unit %d", i))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		tokens = append(tokens, tok)
	}

	// Every token must complete despite the panics: each fault is contained
	// to its unit, never to the worker that ran it.
	faults := 0
	for i, tok := range tokens {
		err := tok.AwaitTimeout(5 * time.Second)
		if errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("unit %d never completed", i)
		}
		if err != nil {
			var f *worker.Fault
			if !errors.As(err, &f) {
				t.Fatalf("unit %d: expected *worker.Fault, got %v", i, err)
			}
			faults++
		}
	}
	if want := total / 5; faults != want {
		t.Errorf("expected %d faults, got %d", want, faults)
	}

	// The pool still has its full complement of workers: a fresh submission
	// after the faults must run and succeed.
	tok, err := d.Submit("probe", func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatalf("probe submit failed: %v", err)
	}
	if err := tok.AwaitTimeout(5 * time.Second); err != nil {
		t.Errorf("probe failed after faults: %v", err)
	}

	s := d.Stats()
	if s.Faulted != int64(total/5) {
		t.Errorf("expected %d faulted in stats, got %d", total/5, s.Faulted)
	}
	if s.Workers != workers {
		t.Errorf("expected %d workers in stats, got %d", workers, s.Workers)
	}
}

func TestDispatcher_AwaitTimeoutLeavesUnitRunning(t *testing.T) {
	d := startDispatcher(t, WithWorkers(1))

	release := make(chan struct{})
	tok, err := d.Submit("slow", func(ctx context.Context) error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := tok.AwaitTimeout(30 * time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if tok.IsReady() {
		t.Error("token must not be ready while the unit is still running")
	}

	// The timed-out await must not have cancelled the unit.
	close(release)
	if err := tok.AwaitTimeout(5 * time.Second); err != nil {
		t.Errorf("expected unit to finish cleanly, got %v", err)
	}
}

func TestDispatcher_ShutdownDrainsQueue(t *testing.T) {
	const n = 30

	d := New(WithWorkers(2))
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var ran atomic.Int64
	tokens := make([]*Token, 0, n)
	for i := range n {
		tok, err := d.Submit(fmt.Sprintf("unit-%d", i), func(ctx context.Context) error {
			time.Sleep(time.Millisecond)
			ran.Add(1)
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		tokens = append(tokens, tok)
	}

	if err := d.Shutdown(10 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if got := ran.Load(); got != n {
		t.Errorf("expected all %d queued units to drain, got %d", n, got)
	}
	for i, tok := range tokens {
		if !tok.IsReady() {
			t.Errorf("unit %d: token not completed after drain", i)
		}
	}
	if err := d.Shutdown(time.Second); !errors.Is(err, ErrShutdown) {
		t.Errorf("expected ErrShutdown on second shutdown, got %v", err)
	}
}

func TestDispatcher_ShutdownTimeout(t *testing.T) {
	d := New(WithWorkers(1))
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	release := make(chan struct{})
	defer close(release)
	if _, err := d.Submit("stuck", func(ctx context.Context) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := d.Shutdown(30 * time.Millisecond); !errors.Is(err, ErrShutdownTimeout) {
		t.Errorf("expected ErrShutdownTimeout, got %v", err)
	}
}

func TestDispatcher_Stats(t *testing.T) {
	d := startDispatcher(t, WithWorkers(3))

	const n = 10
	tokens := make([]*Token, 0, n)
	for i := range n {
		tok, err := d.Submit("", func(ctx context.Context) error { return nil })
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
		tokens = append(tokens, tok)
	}
	for _, tok := range tokens {
		if err := tok.AwaitTimeout(5 * time.Second); err != nil {
			t.Fatalf("await failed: %v", err)
		}
	}

	s := d.Stats()
	if s.Submitted != n {
		t.Errorf("expected %d submitted, got %d", n, s.Submitted)
	}
	if s.Completed != n {
		t.Errorf("expected %d completed, got %d", n, s.Completed)
	}
	if s.Faulted != 0 {
		t.Errorf("expected 0 faulted, got %d", s.Faulted)
	}
}

func TestIntake_DrainsAfterClose(t *testing.T) {
	q := newIntake()
	for i := range 3 {
		tok := newToken(int64(i), "")
		if err := q.put(&task{token: tok}); err != nil {
			t.Fatalf("put %d failed: %v", i, err)
		}
	}

	q.close()

	if err := q.put(&task{token: newToken(9, "")}); !errors.Is(err, ErrShutdown) {
		t.Errorf("expected ErrShutdown after close, got %v", err)
	}

	// Already-accepted items stay takeable after close.
	for i := range 3 {
		tk, err := q.take(context.Background())
		if err != nil {
			t.Fatalf("take %d failed: %v", i, err)
		}
		if tk.token.ID() != int64(i) {
			t.Errorf("take %d: expected id %d, got %d", i, i, tk.token.ID())
		}
	}
	if _, err := q.take(context.Background()); err == nil {
		t.Error("expected error taking from drained closed intake")
	}
}
