// Package logx wires up structured logging for the bootstrap engine.
//
// The teacher gates its own fmt.Fprintf-based logit/croak helpers
// behind a bitmask (control.logmask, logEnable) set once at startup
// from command-line flags (surgeon/reposurgeon.go). This package
// keeps that "one knob, set once, checked everywhere" shape but
// expresses it with logrus levels instead of a hand-rolled bitmask.
package logx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a *logrus.Logger configured per the CLI's --verbose and
// --no-color flags.
func New(verbose bool, noColor bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: noColor,
		FullTimestamp: true,
		DisableQuote:  true,
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// Discard returns a logger that drops everything, for tests and for
// the Validator's silent probing paths.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
