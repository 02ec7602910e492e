// Package sensor implements the liquid level sampling pipeline: converting
// echo timings to distances, smoothing them over a moving window, and
// persisting the filtered readings.
package sensor

import (
	"math"
	"time"
)

// cmPerSecond converts an echo round-trip duration to centimeters: half the
// speed of sound in air, expressed in cm/s.
const cmPerSecond = 17150.0

// Default validation bounds for the HC-SR04 class of sensors.
const (
	DefaultMinCM      = 2.0
	DefaultMaxCM      = 400.0
	DefaultFallbackCM = 25.0
)

// RawSample is one converted and validated distance measurement.
type RawSample struct {
	DistanceCM float64
	Valid      bool
}

// Converter turns echo durations into validated distance samples.
// With SimulateOnInvalid set, out-of-range results are replaced by
// FallbackCM and marked valid, keeping higher layers exercised when no
// real tank is attached.
type Converter struct {
	MinCM             float64
	MaxCM             float64
	SimulateOnInvalid bool
	FallbackCM        float64
}

// NewConverter creates a converter with the default valid range.
func NewConverter() *Converter {
	return &Converter{MinCM: DefaultMinCM, MaxCM: DefaultMaxCM, FallbackCM: DefaultFallbackCM}
}

// ToSample converts one echo duration into a distance sample.
// The range check runs on the unrounded distance; the reported value is
// rounded to two decimals.
func (c *Converter) ToSample(echo time.Duration) RawSample {
	d := echo.Seconds() * cmPerSecond
	if d < c.MinCM || d > c.MaxCM {
		if c.SimulateOnInvalid {
			return RawSample{DistanceCM: c.FallbackCM, Valid: true}
		}
		return RawSample{}
	}
	return RawSample{DistanceCM: round2(d), Valid: true}
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
