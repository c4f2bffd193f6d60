// Package dlog provides the tagged stdlib logger used across the
// buffer pool, disk pager and B+-tree packages.
//
// None of the retrieval pack's example repositories reach for a
// structured logging library (no zap, zerolog, logrus, or slog); every
// one of them, including the teacher, logs through fmt/log straight to
// stderr with an ad-hoc tag per subsystem. This package keeps that
// convention but gives every call site a consistent prefix instead of
// repeating it inline.
package dlog

import (
	"io"
	"log"
	"os"
)

// Logger is a tagged wrapper around the standard library logger.
type Logger struct {
	*log.Logger
}

// New returns a Logger that prefixes every line with "[tag] ".
func New(tag string) *Logger {
	return &Logger{log.New(os.Stderr, "["+tag+"] ", log.LstdFlags|log.Lmicroseconds)}
}

// NewTo is New but writing to an arbitrary writer and without the
// date/time prefix, for tests that
// want to assert on emitted log lines instead of polluting stderr.
func NewTo(tag string, w io.Writer) *Logger {
	return &Logger{log.New(w, "["+tag+"] ", 0)}
}

// Discard is a Logger that throws every line away, used as the default
// so library code never forces output on a caller that didn't ask for it.
func Discard() *Logger {
	return &Logger{log.New(io.Discard, "", 0)}
}
