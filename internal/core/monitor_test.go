package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BrewSense/internal/brew"
	"BrewSense/internal/device"
	"BrewSense/internal/model"
	"BrewSense/internal/parser"
	"BrewSense/internal/sensor"
	"BrewSense/internal/voice"
	"BrewSense/internal/webhook"
)

type fakeLeveler struct {
	reading model.FilteredReading
	err     error
}

func (f fakeLeveler) Sample() (model.FilteredReading, error) { return f.reading, f.err }

// flowServer captures webhook deliveries.
type flowServer struct {
	srv *httptest.Server

	mu     sync.Mutex
	bodies []string
}

func newFlowServer(t *testing.T) *flowServer {
	t.Helper()
	f := &flowServer{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(body))
		f.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *flowServer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

func (f *flowServer) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

func newTestSampler(t *testing.T) *sensor.Sampler {
	t.Helper()
	timer := device.NewSimulatedPulseTimer(20, 30, 1)
	store := sensor.NewStore(filepath.Join(t.TempDir(), "readings.json"))
	return sensor.NewSampler(timer, sensor.NewConverter(), sensor.NewFilter(5), store)
}

func newScriptedListener(lines []string) *voice.Listener {
	l := voice.NewListener(voice.NewSimulatedRecorder(voice.DefaultSampleRate, voice.DefaultBitDepth),
		voice.NewScriptedTranscriber(lines), nil)
	l.Window = 50 * time.Millisecond
	return l
}

func TestRunCycleBrewFlow(t *testing.T) {
	sensorFlow := newFlowServer(t)
	commandFlow := newFlowServer(t)

	sampler := newTestSampler(t)
	listener := newScriptedListener([]string{
		"begin potion",
		"added dragon blood",
		"finalize mixture",
	})
	conn := webhook.NewConnector(sensorFlow.srv.URL, commandFlow.srv.URL)
	tracker := brew.NewTracker(sampler, conn)
	m := NewMonitor(sampler, listener, conn, tracker, "")

	ctx := context.Background()

	res := m.RunCycle(ctx)
	assert.True(t, res.SensorOK)
	assert.True(t, res.VoiceOK, "start batch cycle")
	_, active := tracker.Active()
	assert.True(t, active)

	res = m.RunCycle(ctx)
	assert.True(t, res.VoiceOK, "add ingredient cycle")
	batch, active := tracker.Active()
	require.True(t, active)
	require.Len(t, batch.Ingredients, 1)
	assert.Equal(t, "dragon_blood", batch.Ingredients[0].Type)

	res = m.RunCycle(ctx)
	assert.True(t, res.VoiceOK, "complete batch cycle")
	_, active = tracker.Active()
	assert.False(t, active, "completion clears the batch")

	assert.Equal(t, 3, sensorFlow.count(), "one level post per cycle")

	var summaries int
	for _, body := range commandFlow.all() {
		if json.Valid([]byte(body)) {
			var s model.BatchSummary
			if err := json.Unmarshal([]byte(body), &s); err == nil && s.PotionData.StartTime != "" {
				summaries++
				assert.Len(t, s.PotionData.Ingredients, 1)
				assert.Equal(t, "dragon_blood", s.PotionData.Ingredients[0].Type)
				assert.NotEmpty(t, s.PotionData.CompletionTime)
			}
		}
	}
	assert.Equal(t, 1, summaries, "exactly one batch summary delivered")
}

func TestRunCycleVoiceDisabled(t *testing.T) {
	sensorFlow := newFlowServer(t)
	conn := webhook.NewConnector(sensorFlow.srv.URL, "")
	m := NewMonitor(newTestSampler(t), nil, conn, nil, "")

	res := m.RunCycle(context.Background())
	assert.True(t, res.SensorOK)
	assert.False(t, res.VoiceOK)
}

func TestRunCycleSensorFailure(t *testing.T) {
	sensorFlow := newFlowServer(t)
	conn := webhook.NewConnector(sensorFlow.srv.URL, "")
	m := NewMonitor(fakeLeveler{err: errors.New("probe fault")}, nil, conn, nil, "")

	res := m.RunCycle(context.Background())
	assert.False(t, res.SensorOK)
	assert.Zero(t, sensorFlow.count(), "failed sample must not reach the flow")
}

func TestRunCycleTimeoutIsQuiet(t *testing.T) {
	err := fmt.Errorf("sample cycle: %w", sensor.ErrPulseTimeout)
	m := NewMonitor(fakeLeveler{err: err}, nil, webhook.NewConnector("", ""), nil, "")

	res := m.RunCycle(context.Background())
	assert.False(t, res.SensorOK)
}

func TestDispatchIngredientFallThrough(t *testing.T) {
	sampler := fakeLeveler{reading: model.FilteredReading{Reading: 20}}
	tracker := brew.NewTracker(sampler, webhook.NewConnector("", ""))
	m := NewMonitor(sampler, nil, webhook.NewConnector("", ""), tracker, "")

	event := model.CommandEvent{
		Transcript: "mixed in something odd, finalize mixture",
		Commands:   []string{voice.CommandAddIngredient, voice.CommandCompleteBatch},
	}
	assert.False(t, m.dispatch(context.Background(), event),
		"unknown ingredient falls through to completion, which fails without a batch")

	_, err := tracker.StartBatch(context.Background())
	require.NoError(t, err)

	event = model.CommandEvent{
		Transcript: "mixed in unicorn hair",
		Commands:   []string{voice.CommandAddIngredient},
	}
	assert.True(t, m.dispatch(context.Background(), event))

	batch, active := tracker.Active()
	require.True(t, active)
	require.Len(t, batch.Ingredients, 1)
	assert.Equal(t, "unicorn_hair", batch.Ingredients[0].Type)
}

func TestMonitorPublishesToHub(t *testing.T) {
	h, srv := newHubServer(t)
	conn := dialWS(t, srv, h)

	reading := model.FilteredReading{Timestamp: "2026-08-21T10:00:00Z", Reading: 22.0}
	m := NewMonitor(fakeLeveler{reading: reading}, nil, webhook.NewConnector("", ""), nil, srv.URL)

	res := m.RunCycle(context.Background())
	assert.True(t, res.SensorOK)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	msg, err := parser.DecodeStream(string(raw))
	require.NoError(t, err)
	assert.Equal(t, parser.TypeSensorReading, msg.Type)
	assert.Equal(t, 22.0, msg.Value)
}

func TestMonitorStartStop(t *testing.T) {
	sensorFlow := newFlowServer(t)
	conn := webhook.NewConnector(sensorFlow.srv.URL, "")
	m := NewMonitor(newTestSampler(t), nil, conn, nil, "")
	m.Interval = 20 * time.Millisecond

	require.NoError(t, m.Start())
	assert.Eventually(t, func() bool { return sensorFlow.count() >= 2 },
		2*time.Second, 10*time.Millisecond, "cycles not running")

	m.Stop()
	m.Stop() // idempotent
}
