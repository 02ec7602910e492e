// Package voice implements the voice command pipeline: capturing audio,
// transcribing it, and classifying the transcript into brew commands.
package voice

import (
	"context"
	"math"
	"time"
)

// Audio capture defaults, matching the transcription service's preferred
// input format.
const (
	DefaultSampleRate   = 16000
	DefaultChannels     = 1
	DefaultBitDepth     = 16
	DefaultSilenceLevel = 0.03
	DefaultRecordWindow = 5 * time.Second
)

// Recorder captures PCM samples for one listening window. Implementations
// drop silent stretches; an empty result means no speech was detected.
// Choosing the microphone or simulated implementation is an explicit
// constructor decision.
type Recorder interface {
	Record(ctx context.Context, window time.Duration) ([]int, error)
	Close() error
}

// fullScale returns the peak amplitude for a bit depth, used to scale the
// configured silence level fraction.
func fullScale(bitDepth int) float64 {
	return float64(int64(1) << (bitDepth - 1))
}

// SimulatedRecorder synthesizes a tone burst above the silence level. It
// stands in for a microphone during development and tests.
type SimulatedRecorder struct {
	SampleRate int
	BitDepth   int
}

// NewSimulatedRecorder creates a recorder producing a 440Hz burst.
func NewSimulatedRecorder(sampleRate, bitDepth int) *SimulatedRecorder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if bitDepth <= 0 {
		bitDepth = DefaultBitDepth
	}
	return &SimulatedRecorder{SampleRate: sampleRate, BitDepth: bitDepth}
}

// Record returns a synthetic tone spanning the window.
func (r *SimulatedRecorder) Record(ctx context.Context, window time.Duration) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := int(window.Seconds() * float64(r.SampleRate))
	amplitude := 0.3 * fullScale(r.BitDepth)
	samples := make([]int, n)
	for i := range samples {
		samples[i] = int(amplitude * math.Sin(2*math.Pi*440*float64(i)/float64(r.SampleRate)))
	}
	return samples, nil
}

// Close is a no-op for the simulated recorder.
func (r *SimulatedRecorder) Close() error { return nil }
