// Package device defines a unified interface for the probe hardware attached to BrewSense.
// It abstracts line-based serial transport and ultrasonic pulse timing.
package device

import (
	"time"

	"BrewSense/internal/model"
)

// Device defines an abstract interface for line-based communication devices.
// Implementations can provide ReadLine/WriteLine operations with optional timeout.
type Device interface {
	// ReadLine reads a single line terminated by '\n'.
	// If timeout > 0, it must return after timeout even if no data available.
	ReadLine(timeout time.Duration) (string, error)

	// WriteLine writes s followed by '\n' to the device.
	WriteLine(s string) error

	// Close closes the device and releases underlying resources.
	Close() error
}

// PulseTimer produces ultrasonic echo round-trip measurements.
// Choosing the serial or simulated implementation is an explicit constructor
// decision made by the caller, never inferred from the environment.
type PulseTimer interface {
	// MeasurePulse triggers one measurement bounded by timeout.
	// A timed-out echo is reported in the observation, not as an error.
	MeasurePulse(timeout time.Duration) (model.PulseObservation, error)

	// Close releases the underlying device.
	Close() error
}

// speedOfSoundCMS is the speed of sound in air in cm/s, used to derive
// synthetic echo timings (round trip = 2*distance/speed).
const speedOfSoundCMS = 34300.0
