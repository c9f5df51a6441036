// Package logging adapts bannergrab's 0..=5 verbosity scale onto logrus
// levels, the way opentrail's cmd/opentrail/main.go gave its stdlib
// logger a fixed prefix -- here each line instead carries a structured
// "component" field.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// verbosityToLevel maps spec.md's 0..=5 scale to logrus levels. Higher
// verbosity means more output, matching the CLI flag's documented
// meaning ("info" is the default, level 3).
var verbosityToLevel = map[int]logrus.Level{
	0: logrus.ErrorLevel,
	1: logrus.WarnLevel,
	2: logrus.WarnLevel,
	3: logrus.InfoLevel,
	4: logrus.DebugLevel,
	5: logrus.TraceLevel,
}

// New builds a logrus.Logger configured for the given verbosity and
// writing to stderr, per spec.md §6 ("Log and status lines go to the
// standard error stream").
func New(verbosity int) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	level, ok := verbosityToLevel[verbosity]
	if !ok {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// Component returns a logger scoped to a single named component, mirroring
// the per-subsystem tagging spec.md's C original did with its fixed
// "bootymapper" log_info/log_warn/log_fatal tag argument.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
