package worker

import (
	"context"
	"fmt"
	"runtime"
)

// Fault is the captured form of a panic raised inside an execution unit. It
// is stored on the owning handle or token instead of propagating, so a
// faulting unit can never take down the process or an unrelated goroutine.
type Fault struct {
	// Name of the worker or label of the unit that faulted, for diagnostics.
	Name string
	// Value is the recovered panic value.
	Value any
	// Stack is the faulting goroutine's stack at recovery time.
	Stack []byte
}

func (f *Fault) Error() string {
	if f.Name != "" {
		return fmt.Sprintf("worker %q panicked: %v", f.Name, f.Value)
	}
	return fmt.Sprintf("worker panicked: %v", f.Value)
}

// Run executes unit within a recovery boundary: a panic is converted into a
// *Fault and returned as an error rather than unwinding into the caller's
// goroutine. An error returned by the unit passes through unchanged.
func Run(ctx context.Context, name string, unit Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = &Fault{Name: name, Value: r, Stack: buf[:n]}
		}
	}()

	return unit(ctx)
}
