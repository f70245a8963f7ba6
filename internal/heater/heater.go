// Package heater provides seat-heater hardware control with abstraction.
// The real implementation drives the 4-level heater switch board through
// the Linux GPIO character device. The fake implementation allows testing
// without hardware.
package heater

import "errors"

// ErrUnavailable is returned when the hardware interface cannot be
// reached. Callers treat it as degraded, not fatal: the controller
// retries the connection on the next call.
var ErrUnavailable = errors.New("heater: hardware unavailable")

// MaxLevel is the highest heater level the switch board accepts.
const MaxLevel = 3

// Controller reads and writes per-zone heater levels. Zone ids are
// opaque vendor integers; the daemon maps seat roles onto them.
type Controller interface {
	// Write sets the heater level [0,3] for a zone.
	Write(zone, level int) error

	// Read returns the level currently selected on the hardware for a
	// zone. This sees levels set by the console rotary switch too, which
	// is what manual-override detection relies on.
	Read(zone int) (int, error)

	// Close releases hardware resources. It does not zero the heaters:
	// the switch board latches the last selected level.
	Close() error
}

// Default BCM line offsets for the two-bit level selector of each seat
// (aftermarket switch board wiring).
var (
	DefaultDriverLines    = [2]int{5, 6}
	DefaultPassengerLines = [2]int{13, 19}
)
