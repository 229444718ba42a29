// =============================================================================
// Frame to Scene Exporter - Logging
// =============================================================================
//
// Leveled logging for the export pipeline. The default implementation
// writes to stderr so scene output and shell redirection stay clean;
// debug messages only appear when verbose mode is on.
//
// =============================================================================

package exporter

import (
	"fmt"
	"os"
)

// Logger is the logging interface used throughout the export pipeline.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NewLogger returns the standard stderr logger. Debug output is emitted
// only when verbose is true.
func NewLogger(verbose bool) Logger {
	return &stderrLogger{verbose: verbose}
}

// stderrLogger is a simple leveled logger printing to stderr.
type stderrLogger struct {
	verbose bool
}

func (l *stderrLogger) Debug(msg string, args ...interface{}) {
	if !l.verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "[DEBUG] "+msg+"\n", args...)
}

func (l *stderrLogger) Info(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[INFO] "+msg+"\n", args...)
}

func (l *stderrLogger) Warn(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[WARN] "+msg+"\n", args...)
}

func (l *stderrLogger) Error(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+msg+"\n", args...)
}
