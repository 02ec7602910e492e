package voice

import (
	"context"
	"sync"
)

// Transcriber turns a recorded WAV file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// ScriptedTranscriber replays a fixed list of transcripts, cycling when it
// runs out. It drives the pipeline without a speech service.
type ScriptedTranscriber struct {
	mu    sync.Mutex
	lines []string
	next  int
}

// NewScriptedTranscriber creates a transcriber replaying lines in order.
func NewScriptedTranscriber(lines []string) *ScriptedTranscriber {
	return &ScriptedTranscriber{lines: lines}
}

// Transcribe returns the next scripted line. With no lines configured it
// returns an empty transcript.
func (t *ScriptedTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) == 0 {
		return "", nil
	}
	line := t.lines[t.next%len(t.lines)]
	t.next++
	return line, nil
}
