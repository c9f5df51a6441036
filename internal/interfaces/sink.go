package interfaces

import "net/netip"

// ResultSink emits one matched host as a single atomic write. No ordering
// is guaranteed across calls made from different goroutines.
type ResultSink interface {
	Emit(ip netip.Addr, body []byte) error
}
