// Package cpu translates advisory worker priorities into best-effort OS
// thread scheduling hints. Platform-specific implementations live in
// separate build-tagged files; unsupported platforms are a no-op.
//
// Priority hints influence relative CPU share at best. They carry no
// ordering guarantee and must never be relied on for correctness.
package cpu

// ApplyNiceHint locks the calling goroutine to its OS thread and nudges that
// thread's nice value by the given amount. It returns a release function
// that restores the default and unlocks the thread; callers should defer it.
//
// A nice of 0 is a no-op and returns a no-op release. Failures are ignored:
// lowering nice (raising priority) typically requires privilege, and the
// hint is advisory either way.
func ApplyNiceHint(nice int) func() {
	if nice == 0 {
		return func() {}
	}
	return applyNiceHint(nice)
}
