// Package config assembles a types.Config from command-line flags and
// the optional send-template data file -- both out-of-scope external
// collaborators per spec.md §1, kept together here the way opentrail's
// internal/config owns all "load the configuration surface" work.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"bannergrab/internal/types"
)

// Options is the raw set of parsed flag values, kept separate from
// types.Config so flag parsing and domain validation are independently
// testable, mirroring opentrail's LoadConfigWithFlagSet(fs) split.
type Options struct {
	Concurrent   int
	Port         int
	ConnTimeout  int
	ReadTimeout  int
	Verbosity    int
	DataPath     string
	SearchString string
	Format       string
	MaxReadSize  int
	MetricsAddr  string
}

// ParseFlags registers bannergrab's flags on fs and parses args (pass
// os.Args[1:] in production). Both short and long forms of every flag
// in spec.md §6's flag table are accepted; --metrics-addr has only a
// long form.
func ParseFlags(fs *pflag.FlagSet, args []string) (*Options, error) {
	o := &Options{}

	fs.IntVarP(&o.Concurrent, "concurrent", "c", types.DefaultMaxConcurrent, "max_concurrent")
	fs.IntVarP(&o.Port, "port", "p", 0, "TCP port (required)")
	fs.IntVarP(&o.ConnTimeout, "conn-timeout", "t", 5, "connect timeout, seconds")
	fs.IntVarP(&o.ReadTimeout, "read-timeout", "r", 5, "read timeout, seconds")
	fs.IntVarP(&o.Verbosity, "verbosity", "v", types.DefaultVerbosity, "log verbosity 0..5")
	fs.StringVarP(&o.DataPath, "data", "d", "", "path to file whose contents become the send template")
	fs.StringVarP(&o.SearchString, "search-string", "s", "", "substring filter over the response")
	fs.StringVarP(&o.Format, "format", "f", "ip_and_body", "output format: ip_only or ip_and_body")
	fs.IntVarP(&o.MaxReadSize, "max-read-size", "m", types.DefaultMaxReadSize, "max bytes read per connection")
	fs.StringVar(&o.MetricsAddr, "metrics-addr", "", "optional address to serve Prometheus /metrics on")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

// Build validates o and produces an immutable types.Config, resolving
// spec.md §9's "port not supplied" Open Question by making --port
// required.
func Build(o *Options) (*types.Config, error) {
	if o.Port < 1 || o.Port > 65535 {
		return nil, fmt.Errorf("--port is required and must be in 1..65535, got %d", o.Port)
	}
	if o.Concurrent < 1 {
		return nil, fmt.Errorf("--concurrent must be at least 1, got %d", o.Concurrent)
	}
	if o.ConnTimeout < 1 {
		return nil, fmt.Errorf("--conn-timeout must be at least 1 second, got %d", o.ConnTimeout)
	}
	if o.ReadTimeout < 1 {
		return nil, fmt.Errorf("--read-timeout must be at least 1 second, got %d", o.ReadTimeout)
	}
	if o.Verbosity < 0 || o.Verbosity > 5 {
		return nil, fmt.Errorf("--verbosity must be in 0..5, got %d", o.Verbosity)
	}
	if o.MaxReadSize < 1 {
		return nil, fmt.Errorf("--max-read-size must be at least 1, got %d", o.MaxReadSize)
	}

	format := types.FormatIPAndBody
	if o.Format == "ip_only" {
		format = types.FormatIPOnly
	}

	cfg := &types.Config{
		Port:           uint16(o.Port),
		ConnectTimeout: time.Duration(o.ConnTimeout) * time.Second,
		ReadTimeout:    time.Duration(o.ReadTimeout) * time.Second,
		MaxConcurrent:  uint32(o.Concurrent),
		MaxReadSize:    uint32(o.MaxReadSize),
		Format:         format,
		Verbosity:      o.Verbosity,
		MetricsAddr:    o.MetricsAddr,
	}

	if o.SearchString != "" {
		cfg.SearchString = []byte(o.SearchString)
	}

	if o.DataPath != "" {
		data, err := loadSendTemplate(o.DataPath)
		if err != nil {
			return nil, err
		}
		cfg.SendTemplate = data
	}

	return cfg, nil
}

// loadSendTemplate reads the entire contents of path as the send
// template. An unreadable data file is a fatal startup error per
// spec.md §7.
func loadSendTemplate(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read send data file %q: %w", path, err)
	}
	return data, nil
}
