//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// applyNiceHint adjusts the calling thread's nice value.
// Must keep the goroutine wired to its OS thread for the hint to stick,
// hence the LockOSThread pairing.
//
// On Linux, PRIO_PROCESS with pid 0 addresses the calling thread, since
// threads are schedulable entities with their own nice values.
func applyNiceHint(nice int) func() {
	runtime.LockOSThread()
	_ = unix.Setpriority(unix.PRIO_PROCESS, 0, nice)

	return func() {
		_ = unix.Setpriority(unix.PRIO_PROCESS, 0, 0)
		runtime.UnlockOSThread()
	}
}
