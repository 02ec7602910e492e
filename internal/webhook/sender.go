// Package webhook delivers sensor readings, voice commands and batch
// summaries to Power Automate flows over HTTP, retrying transient failures.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Delivery defaults. The flow endpoint answers 202 Accepted on success, so a
// short timeout and a few spaced retries cover the usual hiccups.
const (
	DefaultMaxAttempts = 3
	DefaultRetryWait   = time.Second
	DefaultHTTPTimeout = 3 * time.Second
	maxRetryWait       = 30 * time.Second
	contentTypeJSON    = "application/json"
)

// Sender posts JSON payloads to one webhook URL with retries. The wait
// between attempts doubles each time up to a cap.
type Sender struct {
	URL         string
	MaxAttempts int
	RetryWait   time.Duration
	Client      *http.Client
}

// NewSender creates a sender with the default retry policy.
func NewSender(url string) *Sender {
	return &Sender{
		URL:         url,
		MaxAttempts: DefaultMaxAttempts,
		RetryWait:   DefaultRetryWait,
		Client:      &http.Client{Timeout: DefaultHTTPTimeout},
	}
}

// Send posts the payload as JSON. Any 2xx response counts as delivered;
// other statuses and transport errors are retried until the attempts run
// out.
func (s *Sender) Send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	wait := s.RetryWait
	if wait <= 0 {
		wait = DefaultRetryWait
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.post(ctx, client, body)
		if err == nil {
			return nil
		}
		slog.Warn("[webhook] delivery attempt failed",
			"url", s.URL, "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
		if wait > maxRetryWait {
			wait = maxRetryWait
		}
	}
	return fmt.Errorf("webhook delivery to %s failed after %d attempts", s.URL, attempts)
}

func (s *Sender) post(ctx context.Context, client *http.Client, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
