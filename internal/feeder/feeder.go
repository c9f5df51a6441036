// Package feeder implements the Input Feeder: parsing a newline-delimited
// stream of IPv4 dotted-quad addresses into a channel of types.Target.
package feeder

import (
	"bufio"
	"io"
	"net/netip"
	"strings"

	"github.com/sirupsen/logrus"

	"bannergrab/internal/types"
)

// Feeder reads targets, one per line, from an underlying io.Reader.
// A line is terminated by '\n'; a trailing '\r' is tolerated. Malformed
// lines are skipped with a warning and never counted as admitted work.
type Feeder struct {
	r   io.Reader
	log *logrus.Entry
}

// New wraps r (typically os.Stdin) as a target feeder.
func New(r io.Reader, log *logrus.Entry) *Feeder {
	return &Feeder{r: r, log: log}
}

// Run parses f's stream and sends one Target per well-formed line to out,
// in input order, closing out once the stream reaches EOF. It is meant to
// run on its own goroutine; the Dispatcher's receive from out is the
// "await input readability" suspension point from spec.md §5.
func (f *Feeder) Run(out chan<- types.Target) {
	defer close(out)

	scanner := bufio.NewScanner(f.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		addr, err := netip.ParseAddr(line)
		if err != nil || !addr.Is4() {
			if f.log != nil {
				f.log.WithField("line", line).Warn("skipping malformed input line")
			}
			continue
		}
		out <- types.Target{IP: addr}
	}
	if err := scanner.Err(); err != nil && f.log != nil {
		f.log.WithError(err).Warn("input stream read error")
	}
}
