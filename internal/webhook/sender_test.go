package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(url string) *Sender {
	s := NewSender(url)
	s.RetryWait = 5 * time.Millisecond
	return s
}

func TestSendFirstAttempt(t *testing.T) {
	var requests int32
	var gotContentType string
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := newTestSender(srv.URL)
	err := s.Send(context.Background(), map[string]float64{"liquid_level": 22})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&requests))
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"liquid_level":22}`, gotBody)
}

func TestSendAcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, newTestSender(srv.URL).Send(context.Background(), "ping"))
}

func TestSendRetriesThenSucceeds(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := newTestSender(srv.URL).Send(context.Background(), "ping")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests), "one failure costs exactly one retry")
}

func TestSendExhaustsAttempts(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestSender(srv.URL).Send(context.Background(), "ping")
	assert.ErrorContains(t, err, "failed after 3 attempts")
	assert.EqualValues(t, 3, atomic.LoadInt32(&requests))
}

func TestSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := newTestSender(srv.URL).Send(context.Background(), "ping")
	assert.Error(t, err)
}

func TestSendContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSender(srv.URL)
	s.RetryWait = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := s.Send(ctx, "ping")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
