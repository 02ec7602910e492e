package voice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"BrewSense/internal/model"
)

// listenRetryDelay spaces out retries after a failed listening pass.
const listenRetryDelay = time.Second

// Listener runs the full voice pipeline: record a window of audio, write it
// to a temporary WAV file, transcribe it and classify the transcript.
type Listener struct {
	Recorder   Recorder
	Transcrib  Transcriber
	Classifier *Classifier

	SampleRate int
	Channels   int
	BitDepth   int
	Window     time.Duration

	now func() time.Time
}

// NewListener wires a listener from its parts, applying capture defaults.
func NewListener(rec Recorder, tr Transcriber, cl *Classifier) *Listener {
	if cl == nil {
		cl = NewClassifier(nil, nil)
	}
	return &Listener{
		Recorder:   rec,
		Transcrib:  tr,
		Classifier: cl,
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		BitDepth:   DefaultBitDepth,
		Window:     DefaultRecordWindow,
		now:        time.Now,
	}
}

// ListenOnce records one window and returns the classified command event.
// A silent window returns an empty event without calling the transcriber.
func (l *Listener) ListenOnce(ctx context.Context) (model.CommandEvent, error) {
	samples, err := l.Recorder.Record(ctx, l.Window)
	if err != nil {
		return model.CommandEvent{}, fmt.Errorf("record audio: %w", err)
	}
	if len(samples) == 0 {
		slog.Debug("[voice] no audio detected")
		return model.CommandEvent{}, nil
	}

	f, err := os.CreateTemp("", "brewsense-voice-*.wav")
	if err != nil {
		return model.CommandEvent{}, fmt.Errorf("create temp wav: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := WriteWAV(path, samples, l.SampleRate, l.BitDepth, l.Channels); err != nil {
		return model.CommandEvent{}, err
	}

	transcript, err := l.Transcrib.Transcribe(ctx, path)
	if err != nil {
		return model.CommandEvent{}, fmt.Errorf("transcribe audio: %w", err)
	}
	if transcript == "" {
		return model.CommandEvent{}, nil
	}
	slog.Info("[voice] transcribed", "text", transcript)

	return model.CommandEvent{
		Transcript: transcript,
		Commands:   l.Classifier.Classify(transcript),
		Timestamp:  l.now().Format(time.RFC3339),
	}, nil
}

// Start launches a background listening loop that sends recognized command
// events to out. The returned stop function is idempotent and waits for the
// loop to exit.
func (l *Listener) Start(out chan<- model.CommandEvent) (func(), error) {
	if l.Recorder == nil || l.Transcrib == nil {
		return nil, fmt.Errorf("listener missing recorder or transcriber")
	}
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			event, err := l.ListenOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("[voice] listen pass failed", "error", err)
				time.Sleep(listenRetryDelay)
				continue
			}
			if event.Transcript == "" {
				continue
			}
			select {
			case out <- event:
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			close(stop)
			wg.Wait()
		})
	}, nil
}

// Close releases the recorder.
func (l *Listener) Close() error {
	if l.Recorder == nil {
		return nil
	}
	return l.Recorder.Close()
}
