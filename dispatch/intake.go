package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/eapache/queue"
)

// errIntakeClosed reports that the intake is closed and fully drained.
var errIntakeClosed = errors.New("dispatch: intake closed")

// intake is the dispatcher's unbounded FIFO of pending submissions. It is an
// internal synchronization detail and is never exposed to callers.
//
// A ring-buffer queue holds the tasks under a mutex; waiting consumers park
// on notifyC (buffered, never closed) and wake on closeC (closed once, on
// shutdown). Dequeue blocks without spinning when the queue is empty.
type intake struct {
	mu     sync.Mutex
	q      *queue.Queue
	closed bool

	notifyC chan struct{}
	closeC  chan struct{}
}

func newIntake() *intake {
	return &intake{
		q:       queue.New(),
		notifyC: make(chan struct{}, 1),
		closeC:  make(chan struct{}),
	}
}

// put enqueues t. The queue is unbounded, so put never blocks; it only fails
// once the intake is closed.
func (in *intake) put(t *task) error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return ErrShutdown
	}
	in.q.Add(t)
	in.mu.Unlock()

	select {
	case in.notifyC <- struct{}{}:
	default:
	}
	return nil
}

// tryTake removes the oldest pending task without blocking. When more tasks
// remain it re-arms the notification so sibling consumers keep draining.
func (in *intake) tryTake() (*task, bool) {
	in.mu.Lock()
	if in.q.Length() == 0 {
		in.mu.Unlock()
		return nil, false
	}
	t := in.q.Remove().(*task)
	more := in.q.Length() > 0
	in.mu.Unlock()

	if more {
		select {
		case in.notifyC <- struct{}{}:
		default:
		}
	}
	return t, true
}

// take blocks until a task is available, the intake is closed and drained,
// or ctx is cancelled. After close, remaining tasks are still handed out so
// every accepted submission gets executed.
func (in *intake) take(ctx context.Context) (*task, error) {
	for {
		if t, ok := in.tryTake(); ok {
			return t, nil
		}

		in.mu.Lock()
		drained := in.closed && in.q.Length() == 0
		in.mu.Unlock()
		if drained {
			return nil, errIntakeClosed
		}

		select {
		case <-in.notifyC:
		case <-in.closeC:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// length reports the number of queued, not-yet-dequeued tasks.
func (in *intake) length() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.q.Length()
}

// close stops intake of new tasks. Already-queued tasks remain takeable.
func (in *intake) close() {
	in.mu.Lock()
	alreadyClosed := in.closed
	in.closed = true
	in.mu.Unlock()

	if !alreadyClosed {
		close(in.closeC)
	}
}
