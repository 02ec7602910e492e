// Package device implements a simulated pulse timer for development without hardware.
package device

import (
	"math/rand"
	"time"

	"BrewSense/internal/model"
)

// Default distance range for the simulated probe.
const (
	DefaultSimMinCM = 20.0
	DefaultSimMaxCM = 30.0
)

// SimulatedPulseTimer synthesizes echo timings from a configurable distance
// range. It stands in for the serial probe during development and tests.
type SimulatedPulseTimer struct {
	MinCM float64
	MaxCM float64
	rng   *rand.Rand
}

// NewSimulatedPulseTimer creates a timer producing distances in [minCM, maxCM].
// An unset range falls back to the defaults; a zero seed derives one from
// the clock.
func NewSimulatedPulseTimer(minCM, maxCM float64, seed int64) *SimulatedPulseTimer {
	if minCM == 0 && maxCM == 0 {
		minCM, maxCM = DefaultSimMinCM, DefaultSimMaxCM
	}
	if maxCM < minCM {
		minCM, maxCM = maxCM, minCM
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedPulseTimer{MinCM: minCM, MaxCM: maxCM, rng: rand.New(rand.NewSource(seed))}
}

// MeasurePulse returns a synthetic observation. It never times out.
func (t *SimulatedPulseTimer) MeasurePulse(timeout time.Duration) (model.PulseObservation, error) {
	d := t.MinCM + t.rng.Float64()*(t.MaxCM-t.MinCM)
	secs := 2 * d / speedOfSoundCMS
	return model.PulseObservation{Duration: time.Duration(secs * float64(time.Second))}, nil
}

// Close is a no-op for the simulated timer.
func (t *SimulatedPulseTimer) Close() error { return nil }
