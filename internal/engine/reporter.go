package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Reporter emits one status line per second summarizing current_running
// vs max_concurrent and every Stats counter, grounded on the original
// source's print_status and on opentrail's PerformanceMonitor ticker
// loop. The timer is self-rearming; missed ticks are not compensated.
// Prometheus counters are updated inline by Counters as each transition
// happens, so the Reporter only needs to push the two gauges (running,
// max_concurrent) that have no natural single-event trigger.
type Reporter struct {
	dispatcher *Dispatcher
	counters   *Counters
	log        *logrus.Entry
	interval   time.Duration
}

// NewReporter builds a Reporter that ticks every interval.
func NewReporter(dispatcher *Dispatcher, counters *Counters, log *logrus.Entry, interval time.Duration) *Reporter {
	return &Reporter{
		dispatcher: dispatcher,
		counters:   counters,
		log:        log,
		interval:   interval,
	}
}

// Run ticks until ctx is cancelled, logging one snapshot per tick, then
// emits a final snapshot before returning -- matching spec.md §4.4's
// "also invoked once at shutdown."
func (r *Reporter) Run(ctx context.Context, maxConcurrent uint32) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.emit(maxConcurrent)
			return
		case <-ticker.C:
			r.emit(maxConcurrent)
		}
	}
}

func (r *Reporter) emit(maxConcurrent uint32) {
	snap := r.counters.Stats.Snapshot()
	running := r.dispatcher.CurrentRunning()

	if r.log != nil {
		r.log.WithFields(logrus.Fields{
			"running":        running,
			"max_concurrent": maxConcurrent,
			"found":          snap.Found,
			"initiated":      snap.InitConnectedHosts,
			"connected":      snap.ConnectedHosts,
			"conn_timed_out": snap.ConnTimedOut,
			"read_timed_out": snap.ReadTimedOut,
			"timed_out":      snap.TimedOut,
			"completed":      snap.CompletedHosts,
		}).Info("status")
	}

	if r.counters.Metrics != nil {
		r.counters.Metrics.CurrentRunning.Set(float64(running))
		r.counters.Metrics.MaxConcurrent.Set(float64(maxConcurrent))
	}
}
