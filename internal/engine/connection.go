package engine

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"bannergrab/internal/interfaces"
	"bannergrab/internal/template"
	"bannergrab/internal/types"
)

// scratchBufferSize is the read chunk size used to capture the first
// readable burst off a connection, mirroring opentrail's
// internal/server/tcp.go ConnectionBufferSize=4096 scratch buffer. The
// original C source likewise only malloc's len+1 bytes once the actual
// byte count is known (original_source/bootymapper.c:129), never the
// full max_read_size up front; sizing every Connection Task's buffer to
// MaxReadSize (default 16 MiB) would make the spec's own million-task
// fanout require terabytes of memory.
const scratchBufferSize = 4096

// runConnection drives one target through the Connecting -> Connected ->
// Received -> Terminal state machine described in spec.md §4.3. It owns
// exactly one socket for its entire lifetime and never outlives it.
// onPhase, if non-nil, is notified of every Phase transition the task
// passes through; production callers pass nil, tests use it to observe
// the otherwise-internal state machine.
func runConnection(cfg *types.Config, counters *Counters, sink interfaces.ResultSink, log *logrus.Entry, target types.Target, onPhase func(types.Phase)) {
	setPhase := func(p types.Phase) {
		if onPhase != nil {
			onPhase(p)
		}
	}

	setPhase(types.PhaseConnecting)
	counters.initConnected()

	addr := net.JoinHostPort(target.IP.String(), strconv.Itoa(int(cfg.Port)))

	conn, err := net.DialTimeout("tcp4", addr, cfg.ConnectTimeout)
	if err != nil {
		counters.connTimedOut()
		if log != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.WithField("ip", target.IP).WithField("phase", types.PhaseConnecting).Debug("connect timed out")
			} else {
				log.WithField("ip", target.IP).WithField("phase", types.PhaseConnecting).WithError(err).Debug("connect failed")
			}
		}
		return
	}
	defer conn.Close()

	// Connecting -> Connected.
	setPhase(types.PhaseConnected)
	counters.connected()

	if len(cfg.SendTemplate) > 0 {
		payload := template.Render(cfg.SendTemplate, target.IP)
		if _, err := conn.Write(payload); err != nil {
			if log != nil {
				log.WithField("ip", target.IP).WithField("phase", types.PhaseConnected).WithError(err).Debug("send failed")
			}
			return
		}
	}

	if err := conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
		if log != nil {
			log.WithField("ip", target.IP).WithField("phase", types.PhaseConnected).WithError(err).Debug("could not arm read deadline")
		}
		return
	}

	// Read at most one chunk, bounded by both the scratch size and the
	// configured cap -- never the full cap up front.
	chunk := uint32(scratchBufferSize)
	if cfg.MaxReadSize < chunk {
		chunk = cfg.MaxReadSize
	}
	buf := make([]byte, chunk)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			counters.readTimedOut()
			if log != nil {
				log.WithField("ip", target.IP).WithField("phase", types.PhaseConnected).Debug("read timed out")
			}
			return
		}
		if errors.Is(err, io.EOF) {
			// Connected -> Terminal(completed), zero-byte response: no match.
			counters.completed()
			return
		}
		if log != nil {
			log.WithField("ip", target.IP).WithField("phase", types.PhaseConnected).WithError(err).Debug("read failed")
		}
		counters.completed()
		return
	}

	// Connected -> Received -> Terminal(completed).
	setPhase(types.PhaseReceived)
	body := buf[:n]
	counters.completed()

	if isMatch(cfg.SearchString, body) {
		counters.found()
		if sink != nil {
			if err := sink.Emit(target.IP, body); err != nil && log != nil {
				log.WithField("ip", target.IP).WithField("phase", types.PhaseReceived).WithError(err).Warn("failed to emit result")
			}
		}
	}
}

// isMatch reports whether body matches the configured search filter. A
// nil/empty search string matches any non-empty response, per spec.md
// §9's codification of the original source's behavior.
func isMatch(search, body []byte) bool {
	if len(search) == 0 {
		return true
	}
	return bytes.Contains(body, search)
}
