// Package logger provides verbose logging for the docqa CLI.
// When verbose mode is enabled via the --verbose flag, pipeline messages
// (ingestion, condensing, retrieval, generation) are printed to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes a prefixed line when verbose mode is enabled.
func logf(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf("[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf("[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf("[WARN] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	logf("\n=== ", "%s ===", name)
}

// Stage records a state transition of the answer engine.
func Stage(from, to fmt.Stringer) {
	logf("[STAGE] ", "%s -> %s", from, to)
}

// Elapsed starts a timer and returns a func that logs the time since.
//
//	defer logger.Elapsed("embed batch")()
func Elapsed(label string) func() {
	start := now()
	return func() {
		logf("[TIME] ", "%s took %s", label, now().Sub(start).Round(time.Millisecond))
	}
}
