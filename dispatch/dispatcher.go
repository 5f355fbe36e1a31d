// Package dispatch provides a fixed-size pool of reusable workers behind an
// unbounded submission queue. Every submission returns a completion Token;
// a fault inside one unit is contained to its token and never takes down the
// worker that ran it, so the pool size stays constant for the dispatcher's
// lifetime.
//
// Pool workers are background by nature: the process may exit while they are
// idle or mid-task. Callers that need completion must await every token they
// care about before exiting.
//
// # Basic Usage
//
//	d := dispatch.New(dispatch.WithWorkers(4))
//	if err := d.Start(ctx); err != nil {
//	    return err
//	}
//	defer d.Shutdown(5 * time.Second)
//
//	tok, err := d.Submit("resize-42", func(ctx context.Context) error {
//	    return resize(ctx, img)
//	})
//	if err != nil {
//	    return err
//	}
//	if err := tok.Await(); err != nil {
//	    // the unit's error, or its captured panic as a *worker.Fault
//	}
package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/threadworks/harness/worker"
)

var (
	// ErrAlreadyStarted is returned by Start after the first successful call.
	ErrAlreadyStarted = errors.New("dispatch: already started")
	// ErrNotStarted is returned by Submit and Shutdown before Start.
	ErrNotStarted = errors.New("dispatch: not started")
	// ErrShutdown is returned by Submit once Shutdown has begun.
	ErrShutdown = errors.New("dispatch: shut down")
	// ErrShutdownTimeout is returned by Shutdown when workers do not drain
	// in time.
	ErrShutdownTimeout = errors.New("dispatch: shutdown timeout reached")
)

// task pairs a submitted unit with its completion token.
type task struct {
	unit  worker.Unit
	token *Token
}

// Stats is a point-in-time snapshot of dispatcher activity. Queued is
// approximate under concurrency.
type Stats struct {
	Workers   int
	Queued    int
	Active    int64
	Submitted int64
	Completed int64
	Faulted   int64
}

// Dispatcher owns the worker pool. Create with New, launch with Start,
// submit units with Submit, and stop with Shutdown.
type Dispatcher struct {
	conf *config

	mu    sync.Mutex
	state *runState
}

// runState holds the per-run lifecycle: created by Start, torn down by
// Shutdown.
type runState struct {
	intake   *intake
	cancel   context.CancelFunc
	done     chan struct{}
	started  atomic.Bool
	shutdown atomic.Bool
	nextID   atomic.Int64

	active    atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
	faulted   atomic.Int64
}

// New creates an unstarted dispatcher.
func New(opts ...Option) *Dispatcher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Dispatcher{conf: cfg}
}

// Start launches the fixed set of pool workers. Cancelling ctx abandons
// queued and in-flight units without completing their tokens, consistent
// with the pool's background classification; use Shutdown for a drain.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != nil && d.state.started.Load() {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	state := &runState{
		intake: newIntake(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	state.started.Store(true)
	d.state = state

	var g errgroup.Group
	for i := range d.conf.workers {
		g.Go(func() error {
			return d.runWorker(ctx, int64(i), state)
		})
	}

	go func() {
		_ = g.Wait()
		close(state.done)
	}()

	d.conf.log.Debugf("dispatcher started with %d workers", d.conf.workers)
	return nil
}

// Submit hands a unit to the pool and returns its completion token. The
// label is diagnostic only and may be empty. Submissions are accepted in any
// order relative to execution: "submitted first" never implies "runs first".
func (d *Dispatcher) Submit(label string, unit worker.Unit) (*Token, error) {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()

	if state == nil || !state.started.Load() {
		return nil, ErrNotStarted
	}
	if state.shutdown.Load() {
		return nil, ErrShutdown
	}

	tok := newToken(state.nextID.Add(1), label)
	if err := state.intake.put(&task{unit: unit, token: tok}); err != nil {
		return nil, err
	}

	state.submitted.Add(1)
	d.conf.log.Debugf("submitted unit #%d %q", tok.ID(), label)
	return tok, nil
}

// runWorker is one long-lived pool worker: dequeue, execute, record, loop.
// Faults are contained to the unit's token; the worker always loops back for
// the next unit.
func (d *Dispatcher) runWorker(ctx context.Context, id int64, state *runState) error {
	for {
		t, err := state.intake.take(ctx)
		if err != nil {
			// Drained after shutdown, or the run context was cancelled.
			d.conf.log.Debugf("worker %d exiting: %v", id, err)
			return nil
		}

		if d.conf.limiter != nil {
			if err := d.conf.limiter.Wait(ctx); err != nil {
				t.token.complete(ctx.Err())
				return nil
			}
		}

		state.active.Add(1)
		err = worker.Run(ctx, t.token.Label(), t.unit)
		state.active.Add(-1)

		state.completed.Add(1)
		if err != nil {
			state.faulted.Add(1)
			d.conf.log.Debugf("worker %d: unit #%d faulted: %v", id, t.token.ID(), err)
		}
		t.token.complete(err)
	}
}

// Shutdown stops intake, drains already-accepted units, and waits up to
// timeout for the workers to finish (0 = wait forever). The pool cannot be
// restarted afterwards.
func (d *Dispatcher) Shutdown(timeout time.Duration) error {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()

	if state == nil || !state.started.Load() {
		return ErrNotStarted
	}
	if !state.shutdown.CompareAndSwap(false, true) {
		return ErrShutdown
	}

	state.intake.close()
	err := waitUntil(state.done, timeout)
	state.cancel()
	return err
}

// Stats returns a snapshot of pool activity.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	state := d.state
	d.mu.Unlock()

	s := Stats{Workers: d.conf.workers}
	if state == nil {
		return s
	}
	s.Queued = state.intake.length()
	s.Active = state.active.Load()
	s.Submitted = state.submitted.Load()
	s.Completed = state.completed.Load()
	s.Faulted = state.faulted.Load()
	return s
}

// waitUntil blocks until done is closed or the timeout elapses. A
// non-positive timeout waits forever.
func waitUntil(done <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		<-done
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrShutdownTimeout
	}
}
