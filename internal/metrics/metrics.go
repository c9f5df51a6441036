// Package metrics mirrors the engine's Stats counters into Prometheus
// collectors, grounded on opentrail's internal/metrics/storage.go
// (promauto.NewCounter/NewGauge per tracked field). The collectors are
// exported fields that engine.Counters increments directly; this package
// has no per-transition methods.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineMetrics holds the Prometheus counterparts of engine.Stats.
type EngineMetrics struct {
	Found              prometheus.Counter
	InitConnectedHosts prometheus.Counter
	ConnectedHosts     prometheus.Counter
	ConnTimedOut       prometheus.Counter
	ReadTimedOut       prometheus.Counter
	TimedOut           prometheus.Counter
	CompletedHosts     prometheus.Counter

	CurrentRunning prometheus.Gauge
	MaxConcurrent  prometheus.Gauge
}

// New registers and returns a fresh set of engine metrics against reg.
// Pass prometheus.NewRegistry() in tests to avoid the global default
// registry's "duplicate metrics collector registration" panics across
// repeated test runs.
func New(reg prometheus.Registerer) *EngineMetrics {
	factory := promauto.With(reg)
	return &EngineMetrics{
		Found: factory.NewCounter(prometheus.CounterOpts{
			Name: "bannergrab_found_total",
			Help: "Total number of hosts whose response matched the search string.",
		}),
		InitConnectedHosts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bannergrab_init_connected_hosts_total",
			Help: "Total number of targets admitted for a connect attempt.",
		}),
		ConnectedHosts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bannergrab_connected_hosts_total",
			Help: "Total number of targets that completed a TCP connect.",
		}),
		ConnTimedOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "bannergrab_conn_timed_out_total",
			Help: "Total number of connect attempts that failed or timed out.",
		}),
		ReadTimedOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "bannergrab_read_timed_out_total",
			Help: "Total number of connections that timed out waiting for a read.",
		}),
		TimedOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "bannergrab_timed_out_total",
			Help: "Total number of connect or read timeouts (sum of the two).",
		}),
		CompletedHosts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bannergrab_completed_hosts_total",
			Help: "Total number of targets that reached a terminal outcome.",
		}),
		CurrentRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bannergrab_current_running",
			Help: "Number of Connection Tasks currently in flight.",
		}),
		MaxConcurrent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bannergrab_max_concurrent",
			Help: "Configured concurrency cap.",
		}),
	}
}

// Serve starts an HTTP server exposing /metrics on addr and blocks until
// ctx is cancelled, grounded on opentrail's cmd/loadtest/main.go
// (http.Handle("/metrics", promhttp.Handler())).
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
