// Package worker provides a handle over a single thread of execution: create
// it around a unit of work, start it at most once, join it with an optional
// timeout, query its liveness, and retrieve any fault the unit raised.
//
// A fault inside the unit — an error return or a panic — is captured on the
// handle and retrievable only through it. It never terminates the process or
// another goroutine.
//
// # Basic Usage
//
//	h := worker.New(func(ctx context.Context) error {
//	    return doWork(ctx)
//	}, worker.WithName("loader"))
//
//	if err := h.Start(ctx); err != nil {
//	    return err
//	}
//	if !h.JoinTimeout(5 * time.Second) {
//	    // still running; timing out does not cancel the unit
//	}
package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/threadworks/harness/internal/cpu"
)

// Unit is one unit of work. It runs exactly once on its own goroutine;
// payloads travel in via closure capture. The context carries cancellation
// from whoever started the worker, but honoring it is the unit's choice —
// units are awaitable, not preemptible.
type Unit func(ctx context.Context) error

// State is a worker's lifecycle position. Transitions are one-way:
// NotStarted -> Running -> Completed.
type State int32

const (
	NotStarted State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyStarted is returned by Start after the first successful call.
	ErrAlreadyStarted = errors.New("worker: already started")
	// ErrNotStarted is returned by Join on a handle that was never started.
	ErrNotStarted = errors.New("worker: not started")
	// ErrNilUnit is returned by Start when the handle holds no unit.
	ErrNilUnit = errors.New("worker: nil unit")
)

// Handle is the sole access point for one worker: its identity, advisory
// priority, foreground/background classification, lifecycle, and captured
// fault. The creator owns the handle exclusively until Start.
type Handle struct {
	name       string
	priority   Priority
	background bool
	unit       Unit

	state atomic.Int32
	done  chan struct{}

	// fault is written by the worker goroutine before done is closed and
	// read only after done is observed closed.
	fault error
}

// Option configures a Handle at creation time.
type Option func(*Handle)

// WithName attaches a diagnostic name to the worker.
func WithName(name string) Option {
	return func(h *Handle) { h.name = name }
}

// WithPriority sets the advisory scheduling hint. Defaults to Normal.
func WithPriority(p Priority) Option {
	return func(h *Handle) { h.priority = p }
}

// AsBackground classifies the worker as background: it may be abandoned at
// shutdown with no completion guarantee. Foreground workers (the default)
// must be joined, or finish naturally, for shutdown to be considered clean.
func AsBackground() Option {
	return func(h *Handle) { h.background = true }
}

// New creates a worker handle around unit. The worker is not yet running;
// call Start to launch it.
func New(unit Unit, opts ...Option) *Handle {
	h := &Handle{
		unit:     unit,
		priority: Normal,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start launches the worker goroutine, transitioning NotStarted -> Running.
// A handle is startable at most once: every call after the first returns
// ErrAlreadyStarted without disturbing the running unit.
func (h *Handle) Start(ctx context.Context) error {
	if h.unit == nil {
		return ErrNilUnit
	}
	if !h.state.CompareAndSwap(int32(NotStarted), int32(Running)) {
		return ErrAlreadyStarted
	}

	go h.run(ctx)
	return nil
}

func (h *Handle) run(ctx context.Context) {
	defer close(h.done)
	defer h.state.Store(int32(Completed))

	release := cpu.ApplyNiceHint(h.priority.nice())
	defer release()

	h.fault = Run(ctx, h.name, h.unit)
}

// Join blocks the caller until the worker completes and returns its captured
// fault, if any. Joining a handle that was never started returns
// ErrNotStarted instead of blocking forever.
func (h *Handle) Join() error {
	if State(h.state.Load()) == NotStarted {
		return ErrNotStarted
	}
	<-h.done
	return h.fault
}

// JoinTimeout waits up to d for completion, reporting whether the worker
// finished in time. Returning false alters nothing: the worker keeps running
// independently and can be joined again later. A non-positive d waits
// without a deadline.
func (h *Handle) JoinTimeout(d time.Duration) bool {
	if d <= 0 {
		<-h.done
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-h.done:
		return true
	case <-timer.C:
		return false
	}
}

// IsAlive reports whether the worker is currently Running.
func (h *Handle) IsAlive() bool {
	return State(h.state.Load()) == Running
}

// State returns the worker's current lifecycle state.
func (h *Handle) State() State {
	return State(h.state.Load())
}

// Done exposes a channel closed on completion, for use in select statements.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Fault returns the captured fault once the worker has completed, or nil if
// it has not completed or finished cleanly. A *Fault indicates a recovered
// panic; any other error came from the unit's return value.
func (h *Handle) Fault() error {
	select {
	case <-h.done:
		return h.fault
	default:
		return nil
	}
}

// Name returns the worker's diagnostic name, possibly empty.
func (h *Handle) Name() string { return h.name }

// Priority returns the advisory scheduling hint.
func (h *Handle) Priority() Priority { return h.priority }

// Background reports the shutdown classification.
func (h *Handle) Background() bool { return h.background }
