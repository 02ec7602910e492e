package voice

import (
	"context"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioRecorder captures microphone audio through the default input
// device. Samples are read as int32 and scaled down to the configured bit
// depth; chunks whose peak stays below the silence level are dropped so the
// transcriber only sees speech.
type PortAudioRecorder struct {
	SampleRate   int
	Channels     int
	BitDepth     int
	SilenceLevel float64

	stream *portaudio.Stream
	buf    []int32
}

// NewPortAudioRecorder initializes PortAudio and opens the default input
// stream. Call Close to release the device.
func NewPortAudioRecorder(sampleRate, channels, bitDepth int, silenceLevel float64) (*PortAudioRecorder, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	if bitDepth <= 0 {
		bitDepth = DefaultBitDepth
	}
	if silenceLevel <= 0 {
		silenceLevel = DefaultSilenceLevel
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	r := &PortAudioRecorder{
		SampleRate:   sampleRate,
		Channels:     channels,
		BitDepth:     bitDepth,
		SilenceLevel: silenceLevel,
		buf:          make([]int32, sampleRate/10*channels),
	}
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), len(r.buf), r.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open default stream: %w", err)
	}
	r.stream = stream
	return r, nil
}

// Record listens for the window and returns the non-silent samples heard
// during it. An all-quiet window yields an empty slice.
func (r *PortAudioRecorder) Record(ctx context.Context, window time.Duration) ([]int, error) {
	if window <= 0 {
		window = DefaultRecordWindow
	}
	if err := r.stream.Start(); err != nil {
		return nil, fmt.Errorf("start stream: %w", err)
	}
	defer r.stream.Stop()

	threshold := r.SilenceLevel * fullScale(r.BitDepth)
	shift := uint(32 - r.BitDepth)
	deadline := time.Now().Add(window)
	var samples []int
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.stream.Read(); err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}
		chunk := make([]int, len(r.buf))
		peak := 0
		for i, v := range r.buf {
			s := int(v >> shift)
			chunk[i] = s
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		if float64(peak) > threshold {
			samples = append(samples, chunk...)
		}
	}
	return samples, nil
}

// Close stops the stream and releases PortAudio.
func (r *PortAudioRecorder) Close() error {
	var err error
	if r.stream != nil {
		err = r.stream.Close()
		r.stream = nil
	}
	portaudio.Terminate()
	return err
}
