// Package logger prints diagnostic output for the inkwell CLI to
// stderr. Debug and Info trace the sync and parse pipeline and are
// gated behind the --verbose flag. Warn reports real faults, a sidecar
// that could not be written or a backend call that failed mid-sync, so
// it prints regardless of the flag.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	verbose bool
	out     io.Writer = os.Stderr
)

// SetVerbose toggles Debug and Info output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// SetOutput redirects log output, for tests. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Debug prints pipeline detail when verbose is on.
func Debug(format string, args ...any) {
	emit(true, "DEBUG", format, args...)
}

// Info prints progress messages when verbose is on.
func Info(format string, args ...any) {
	emit(true, "INFO", format, args...)
}

// Warn prints a warning whether or not verbose is on.
func Warn(format string, args ...any) {
	emit(false, "WARN", format, args...)
}

func emit(gated bool, level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}
