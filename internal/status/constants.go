// internal/status/constants.go
package status

import "time"

// Status snapshot constants.
// These values are part of the published status and MUST NOT be configurable.

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy logger: the last tick committed.
const HealthOK uint16 = 1

// HealthError represents a failed transaction or a rejected batch.
const HealthError uint16 = 2

// HealthStale represents a logger whose ticks succeed but deliver no samples.
const HealthStale uint16 = 3

// ---- LIMITS ----

// StaleIntervals is how many poll intervals may pass without a stored
// sample before a healthy logger is reported stale.
const StaleIntervals = 3

// MaxSecondsInError saturates the seconds-in-error counter.
const MaxSecondsInError = 65535

// TickPeriod is the status clock.
const TickPeriod = time.Second

// HealthName returns the lowercase label for a health code.
func HealthName(h uint16) string {
	switch h {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthStale:
		return "stale"
	default:
		return "invalid"
	}
}
