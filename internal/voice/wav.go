package voice

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const audioFormatPCM = 1

// WriteWAV encodes samples as a PCM WAV file at path. The transcriber reads
// the file back, so the format fields must match how the samples were
// captured.
func WriteWAV(path string, samples []int, sampleRate, bitDepth, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	defer f.Close()

	e := wav.NewEncoder(f, sampleRate, bitDepth, channels, audioFormatPCM)
	if err := e.Write(&audio.IntBuffer{
		Data: samples,
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth,
	}); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := e.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}
