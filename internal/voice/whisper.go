package voice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperTranscriber sends recorded audio to the OpenAI transcription API.
type WhisperTranscriber struct {
	client *openai.Client
}

// NewWhisperTranscriber creates a transcriber using the OPENAI_API_KEY
// environment variable.
func NewWhisperTranscriber() (*WhisperTranscriber, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	return &WhisperTranscriber{client: openai.NewClient(key)}, nil
}

// Transcribe uploads the WAV file and returns the recognized text.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: wavPath,
	})
	if err != nil {
		return "", fmt.Errorf("create transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
