// Package obslog is the simulation core's logging surface: thin wrappers
// over the standard logger, kept deliberately boring so every system calls
// the same half-dozen functions instead of reaching for log.Printf directly.
package obslog

import "log"

// Tickf logs a per-tick diagnostic. Systems should use this sparingly;
// anything that fires every tick at normal load belongs in a metric, not
// a log line.
func Tickf(format string, args ...any) {
	log.Printf("⏱ "+format, args...)
}

// Infof logs a routine lifecycle event (bootstrap, shutdown, reconnect).
func Infof(format string, args ...any) {
	log.Printf("ℹ️ "+format, args...)
}

// Warnf logs a recoverable anomaly: dropped outcome, cascade overflow,
// rejected command. The system continues running.
func Warnf(format string, args ...any) {
	log.Printf("⚠️ "+format, args...)
}

// Errorf logs a failure that degrades but does not stop the server (a
// broker publish failure, an asset reload that fell back to the last-good
// bundle).
func Errorf(format string, args ...any) {
	log.Printf("🛑 "+format, args...)
}

// Fatalf logs a startup failure and exits. Only cmd/server's bootstrap path
// should call this; nothing past bootstrap should be able to crash the
// process over a single bad input.
func Fatalf(format string, args ...any) {
	log.Fatalf("🛑 "+format, args...)
}
