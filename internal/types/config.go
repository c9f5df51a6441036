package types

import "time"

// OutputFormat selects how a matched host is rendered on stdout.
type OutputFormat int

const (
	// FormatIPAndBody emits the dotted-quad address, a space, then the raw
	// response body.
	FormatIPAndBody OutputFormat = iota
	// FormatIPOnly emits just the dotted-quad address.
	FormatIPOnly
)

// Config is the immutable configuration shared by every Connection Task.
// Once constructed by internal/config it is never mutated.
type Config struct {
	Port           uint16
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxConcurrent  uint32
	MaxReadSize    uint32

	// SendTemplate, if non-nil, is sent immediately on connect with up to
	// four occurrences of the address placeholder substituted.
	SendTemplate []byte

	// SearchString, if non-nil, filters matches by substring. A nil
	// SearchString means every host with any response bytes is a match.
	SearchString []byte

	Format    OutputFormat
	Verbosity int

	// MetricsAddr, if non-empty, serves Prometheus metrics on this
	// address (e.g. ":9090"). Empty disables the metrics server.
	MetricsAddr string
}

// Defaults mirror spec.md §3 / §6.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second
	DefaultMaxConcurrent  = 1_000_000
	DefaultMaxReadSize    = 16 * 1024 * 1024
	DefaultVerbosity      = 3 // info
)
