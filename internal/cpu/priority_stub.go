//go:build !linux

package cpu

// applyNiceHint is a no-op on platforms without per-thread nice support.
func applyNiceHint(nice int) func() {
	return func() {}
}
