// Package engine implements the concurrent connection engine: the
// bounded-parallelism Dispatcher, the per-connection Connection Task state
// machine, and the Stats/Reporter pair that observe them.
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"bannergrab/internal/interfaces"
	"bannergrab/internal/types"
)

// Dispatcher bounds in-flight Connection Tasks to cfg.MaxConcurrent and
// drives shutdown once the Feeder is exhausted and every admitted task
// has reached a terminal state, per spec.md §4.2.
type Dispatcher struct {
	cfg      *types.Config
	counters *Counters
	sink     interfaces.ResultSink
	log      *logrus.Entry

	// sem is a buffered channel used as a counting semaphore: its
	// capacity is MaxConcurrent, and a full send blocks admission until
	// a Connection Task completes and frees a slot. This is the Go
	// rendering of "pulls from the Feeder only when headroom exists."
	sem chan struct{}

	running atomic.Int64
}

// NewDispatcher constructs a Dispatcher bound to cfg's concurrency cap.
func NewDispatcher(cfg *types.Config, counters *Counters, sink interfaces.ResultSink, log *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		counters: counters,
		sink:     sink,
		log:      log,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}
}

// CurrentRunning returns the live count of in-flight Connection Tasks.
// Safe to call concurrently with Run; used by the Reporter.
func (d *Dispatcher) CurrentRunning() int64 {
	return d.running.Load()
}

// Run admits targets from the channel in input order as concurrency
// headroom becomes available, blocks until the channel is closed (the
// Feeder reports EOF) and every admitted Connection Task has reached a
// terminal state, then returns. Per spec.md §4.2's admission contract,
// admitting targets and reacting to task completions share the same
// semaphore so both trigger conditions ("readability" and "task
// completion") converge on one decision point.
func (d *Dispatcher) Run(targets <-chan types.Target) {
	var wg sync.WaitGroup

	for target := range targets {
		d.sem <- struct{}{}
		d.running.Add(1)
		wg.Add(1)

		go func(t types.Target) {
			defer func() {
				<-d.sem
				d.running.Add(-1)
				wg.Done()
			}()
			runConnection(d.cfg, d.counters, d.sink, d.log, t, nil)
		}(target)
	}

	wg.Wait()
}
