package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"BrewSense/internal/device"
	"BrewSense/internal/model"
)

// DefaultPulseTimeout bounds one echo measurement.
const DefaultPulseTimeout = 100 * time.Millisecond

// Cycle outcomes that yield no reading. All of them mean "retry next cycle".
var (
	ErrPulseTimeout = errors.New("echo pulse timed out")
	ErrOutOfRange   = errors.New("distance outside valid range")
)

// Sampler runs one measurement cycle at a time: trigger, convert, filter,
// persist. A failed cycle mutates nothing; persistence failures are logged
// but never fail the cycle. Not safe for concurrent use; the monitor loop
// serializes calls.
type Sampler struct {
	Timer        device.PulseTimer
	Conv         *Converter
	Filter       *Filter
	Store        *Store
	PulseTimeout time.Duration

	now func() time.Time
}

// NewSampler wires the sampling pipeline. Store may be nil to disable
// persistence.
func NewSampler(t device.PulseTimer, conv *Converter, f *Filter, st *Store) *Sampler {
	return &Sampler{
		Timer:        t,
		Conv:         conv,
		Filter:       f,
		Store:        st,
		PulseTimeout: DefaultPulseTimeout,
		now:          time.Now,
	}
}

// Sample runs one full cycle and returns the smoothed reading.
// Timed-out or out-of-range measurements return an error and leave the
// filter and the log untouched.
func (s *Sampler) Sample() (model.FilteredReading, error) {
	obs, err := s.Timer.MeasurePulse(s.PulseTimeout)
	if err != nil {
		return model.FilteredReading{}, fmt.Errorf("measure pulse: %w", err)
	}
	if obs.TimedOut {
		return model.FilteredReading{}, ErrPulseTimeout
	}

	sample := s.Conv.ToSample(obs.Duration)
	if !sample.Valid {
		return model.FilteredReading{}, ErrOutOfRange
	}

	s.Filter.Push(sample.DistanceCM)
	avg, err := s.Filter.Current()
	if err != nil {
		return model.FilteredReading{}, err
	}

	reading := model.FilteredReading{
		Timestamp: s.now().Format(time.RFC3339),
		Reading:   avg,
	}
	if s.Store != nil {
		if err := s.Store.Append(reading); err != nil {
			slog.Warn("[sampler] persist reading failed", "err", err)
		}
	}
	return reading, nil
}
