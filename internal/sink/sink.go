// Package sink implements the Result Sink: a line-oriented, single-write-
// per-emission writer for matched hosts.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"sync"

	"bannergrab/internal/types"
)

// LineSink writes one line per matched host to an underlying io.Writer,
// serializing concurrent emissions behind a mutex so that each line is
// written as a single atomic write -- avoiding the interleaving spec.md
// §9 warns about under concurrent emission.
type LineSink struct {
	mu     sync.Mutex
	w      *bufio.Writer
	format types.OutputFormat
}

// New wraps w (typically os.Stdout) for line-oriented, format-aware
// emission.
func New(w io.Writer, format types.OutputFormat) *LineSink {
	return &LineSink{
		w:      bufio.NewWriter(w),
		format: format,
	}
}

// Emit writes one line for ip, formatted per the configured OutputFormat,
// and flushes immediately so progress is visible to anything consuming
// stdout as it is produced.
func (s *LineSink) Emit(ip netip.Addr, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case types.FormatIPOnly:
		if _, err := fmt.Fprintf(s.w, "%s\n", ip); err != nil {
			return err
		}
	default:
		if _, err := fmt.Fprintf(s.w, "%s ", ip); err != nil {
			return err
		}
		if _, err := s.w.Write(body); err != nil {
			return err
		}
		if _, err := s.w.Write([]byte("\n")); err != nil {
			return err
		}
	}
	return s.w.Flush()
}
