// Package logging builds the process logger for the outline commands.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options control where log output goes.
type Options struct {
	// Verbose copies log output to stderr.
	Verbose bool

	// File, when set, receives log output through a size-rotated writer.
	File string

	// MaxSizeMB is the size at which File is rotated.
	MaxSizeMB int

	// Stderr overrides os.Stderr, for tests.
	Stderr io.Writer
}

// Logger is a *log.Logger together with the resources behind it.
type Logger struct {
	*log.Logger
	closers []io.Closer
}

// New creates a logger with the given prefix. Without Verbose or File the
// logger discards everything.
func New(prefix string, opts Options) *Logger {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var writers []io.Writer
	var closers []io.Closer
	if opts.Verbose {
		writers = append(writers, stderr)
	}
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: 3,
			MaxAge:     28,
		}
		writers = append(writers, lj)
		closers = append(closers, lj)
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}
	return &Logger{
		Logger:  log.New(w, prefix, log.LstdFlags),
		closers: closers,
	}
}

// Named returns a logger writing to the same destination under another
// prefix.
func (l *Logger) Named(prefix string) *log.Logger {
	return log.New(l.Writer(), prefix, l.Flags())
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
