package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Token is the completion token for one submission. Each Submit maps 1:1 to
// a Token; the unit's result — nil, its error, or its captured fault — is
// retrievable only through it.
//
// Awaiting never cancels the underlying unit: submissions are awaitable, not
// preemptible. A timed-out Await can simply be retried later.
type Token struct {
	id    int64
	label string

	ready atomic.Bool
	once  sync.Once
	done  chan struct{}

	// err is written exactly once, before done is closed.
	err error
}

func newToken(id int64, label string) *Token {
	return &Token{
		id:    id,
		label: label,
		done:  make(chan struct{}),
	}
}

// complete records the unit's outcome and releases all awaiters. Called
// exactly once by the worker that ran the unit.
func (t *Token) complete(err error) {
	t.once.Do(func() {
		t.err = err
		t.ready.Store(true)
		close(t.done)
	})
}

// Await blocks until the unit finishes and returns its outcome: nil on
// success, the unit's error, or the *worker.Fault captured from its panic.
func (t *Token) Await() error {
	<-t.done
	return t.err
}

// AwaitContext waits like Await but honors ctx, returning ctx.Err() if it
// expires first. The unit keeps running regardless.
func (t *Token) AwaitContext(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitTimeout waits up to d, returning context.DeadlineExceeded on expiry.
// A non-positive d waits without a deadline.
func (t *Token) AwaitTimeout(d time.Duration) error {
	if d <= 0 {
		return t.Await()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.done:
		return t.err
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

// TryResult returns the outcome without blocking. The second return reports
// whether the unit has finished.
func (t *Token) TryResult() (error, bool) {
	if !t.ready.Load() {
		return nil, false
	}
	return t.err, true
}

// Done exposes a channel closed on completion, for use in select statements.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// IsReady reports whether the unit has finished, without blocking.
func (t *Token) IsReady() bool {
	return t.ready.Load()
}

// ID returns the dispatcher-assigned submission sequence number.
func (t *Token) ID() int64 { return t.id }

// Label returns the diagnostic label given at submission, possibly empty.
func (t *Token) Label() string { return t.label }
