//go:build unix

// Package rlimit raises the process's open-file limit so the engine can
// sustain its configured concurrency. This is the external collaborator
// spec.md §1 calls out as out of the core's scope; it exists only to be
// called once, from main, after flag parsing.
package rlimit

import "golang.org/x/sys/unix"

// headroom is added on top of the configured concurrency to cover the
// listener-less process's own stdio/log/metrics descriptors.
const headroom = 64

// Raise sets RLIMIT_NOFILE's soft limit to at least want+headroom,
// capped at the hard limit. Resolves the Open Question in spec.md §9:
// the value raised to must be the CLI-parsed max_concurrent, not a
// pre-flag-parse default -- callers must invoke Raise after config
// loading, never before.
func Raise(want uint64) error {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return err
	}

	target := want + headroom
	if target <= limit.Cur {
		return nil
	}
	if limit.Max != unix.RLIM_INFINITY && target > limit.Max {
		target = limit.Max
	}

	limit.Cur = target
	return unix.Setrlimit(unix.RLIMIT_NOFILE, &limit)
}
