// Command bannergrab is a high-fanout TCP banner grabber: it reads IPv4
// targets from stdin, dials a fixed port on each, optionally sends a
// templated payload, reads the server's initial response up to a cap,
// optionally filters by substring, and writes matches to stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"bannergrab/internal/config"
	"bannergrab/internal/engine"
	"bannergrab/internal/feeder"
	"bannergrab/internal/logging"
	"bannergrab/internal/metrics"
	"bannergrab/internal/rlimit"
	"bannergrab/internal/sink"
	"bannergrab/internal/types"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// run contains all of main's logic, parameterized over stdin/stdout so
// it can be exercised directly in tests without spawning a subprocess.
func run(args []string, stdin *os.File, stdout *os.File) int {
	fs := pflag.NewFlagSet("bannergrab", pflag.ContinueOnError)
	opts, err := config.ParseFlags(fs, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, err := config.Build(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logging.New(cfg.Verbosity)
	engineLog := logging.Component(log, "engine")

	if err := rlimit.Raise(uint64(cfg.MaxConcurrent)); err != nil {
		engineLog.WithError(err).Error("could not raise open-file limit")
		return 1
	}

	engineLog.WithFields(map[string]interface{}{
		"port":           cfg.Port,
		"max_concurrent": cfg.MaxConcurrent,
		"conn_timeout_s": cfg.ConnectTimeout.Seconds(),
		"read_timeout_s": cfg.ReadTimeout.Seconds(),
	}).Info("starting scan")

	registry := prometheus.NewRegistry()
	var m *metrics.EngineMetrics
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		m = metrics.New(registry)
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, registry); err != nil {
				engineLog.WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	resultSink := sink.New(stdout, cfg.Format)
	counters := engine.NewCounters(m)
	dispatcher := engine.NewDispatcher(cfg, counters, resultSink, engineLog)
	reporter := engine.NewReporter(dispatcher, counters, engineLog, time.Second)

	// No signal handling here: spec.md §5 leaves SIGINT/termination to
	// the process, not the engine, so the Reporter's ctx is driven only
	// by completion of the drain below, not by a signal.NotifyContext.
	// An unhandled SIGINT/SIGTERM still terminates the process with Go's
	// default signal behavior.
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		reporter.Run(ctx, cfg.MaxConcurrent)
	}()

	targets := make(chan types.Target)
	f := feeder.New(stdin, logging.Component(log, "feeder"))
	go f.Run(targets)

	dispatcher.Run(targets)

	cancel()
	<-reporterDone

	engineLog.Info("scan completed")
	return 0
}
