package engine

import "sync/atomic"

// Stats holds the single-writer-per-increment counters from spec.md §3.
// Every field is an atomic.Int64 so any Connection Task goroutine may
// bump it without a lock; this is the one deliberate relaxation of
// "exactly one goroutine mutates shared state" spec.md §5 permits for
// monotonically nondecreasing counters.
type Stats struct {
	Found              atomic.Int64
	InitConnectedHosts atomic.Int64
	ConnectedHosts     atomic.Int64
	ConnTimedOut       atomic.Int64
	ReadTimedOut       atomic.Int64
	TimedOut           atomic.Int64
	CompletedHosts     atomic.Int64
}

// Snapshot is a point-in-time copy of Stats, used by the Reporter so a
// single log line's fields are mutually consistent with each other (each
// field load happens once, not re-read mid-format).
type Snapshot struct {
	Found              int64
	InitConnectedHosts int64
	ConnectedHosts     int64
	ConnTimedOut       int64
	ReadTimedOut       int64
	TimedOut           int64
	CompletedHosts     int64
}

// Snapshot reads every counter once and returns the result.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Found:              s.Found.Load(),
		InitConnectedHosts: s.InitConnectedHosts.Load(),
		ConnectedHosts:     s.ConnectedHosts.Load(),
		ConnTimedOut:       s.ConnTimedOut.Load(),
		ReadTimedOut:       s.ReadTimedOut.Load(),
		TimedOut:           s.TimedOut.Load(),
		CompletedHosts:     s.CompletedHosts.Load(),
	}
}
