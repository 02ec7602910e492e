package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"BrewSense/internal/brew"
	"BrewSense/internal/model"
	"BrewSense/internal/parser"
	"BrewSense/internal/sensor"
	"BrewSense/internal/voice"
	"BrewSense/internal/webhook"
)

// DefaultMonitorInterval is the pause between monitoring cycles.
const DefaultMonitorInterval = 5 * time.Second

// Leveler provides filtered level samples. Implemented by sensor.Sampler.
type Leveler interface {
	Sample() (model.FilteredReading, error)
}

// Listener yields one classified utterance per listening window.
// Implemented by voice.Listener.
type Listener interface {
	ListenOnce(ctx context.Context) (model.CommandEvent, error)
}

// CycleResult reports the outcome of one monitoring cycle.
type CycleResult struct {
	SensorOK bool
	VoiceOK  bool
}

// Monitor drives the sensor and voice pipelines on a fixed cadence. Each
// cycle takes one level reading and one listening pass, forwards the results
// to the webhook flows and publishes them to the hub. Data-path failures are
// logged and reported in the cycle result; the loop itself never stops on
// them.
type Monitor struct {
	Sampler    Leveler
	Listener   Listener
	Conn       *webhook.Connector
	Tracker    *brew.Tracker
	Classifier *voice.Classifier
	HubURL     string
	Interval   time.Duration

	client *http.Client
	stop   chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewMonitor constructs a monitor over the given pipelines. listener,
// conn and tracker may be nil when the corresponding feature is disabled.
func NewMonitor(sampler Leveler, listener Listener, conn *webhook.Connector, tracker *brew.Tracker, hubURL string) *Monitor {
	return &Monitor{
		Sampler:    sampler,
		Listener:   listener,
		Conn:       conn,
		Tracker:    tracker,
		Classifier: voice.NewClassifier(nil, nil),
		HubURL:     hubURL,
		Interval:   DefaultMonitorInterval,
		client:     &http.Client{Timeout: 3 * time.Second},
		stop:       make(chan struct{}),
	}
}

// RunCycle executes one monitoring cycle: the sensor half, then the voice
// half.
func (m *Monitor) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{
		SensorOK: m.processReading(ctx),
		VoiceOK:  m.processCommand(ctx),
	}
	slog.Info("[monitor] cycle complete", "sensor_ok", res.SensorOK, "voice_ok", res.VoiceOK)
	return res
}

// processReading samples the level, posts it to the sensor flow and
// publishes it to the hub. A timed-out pulse is a quiet cycle, not a fault.
func (m *Monitor) processReading(ctx context.Context) bool {
	if m.Sampler == nil {
		return false
	}
	reading, err := m.Sampler.Sample()
	if err != nil {
		if errors.Is(err, sensor.ErrPulseTimeout) {
			slog.Debug("[monitor] pulse timed out, no reading this cycle")
		} else {
			slog.Warn("[monitor] sampling failed", "error", err)
		}
		return false
	}
	if err := m.Conn.SendReading(ctx, reading.Reading); err != nil {
		slog.Warn("[monitor] reading webhook failed", "error", err)
		return false
	}
	m.publish(parser.ReadingMessage(reading))
	return true
}

// processCommand runs one listening pass and dispatches any recognized
// command to the batch tracker.
func (m *Monitor) processCommand(ctx context.Context) bool {
	if m.Listener == nil {
		return false
	}
	event, err := m.Listener.ListenOnce(ctx)
	if err != nil {
		slog.Warn("[monitor] listening failed", "error", err)
		return false
	}
	if len(event.Commands) == 0 {
		return false
	}

	ok := m.dispatch(ctx, event)
	if err := m.Conn.SendCommand(ctx, event.Commands); err != nil {
		slog.Warn("[monitor] command webhook failed", "error", err)
	}
	m.publish(parser.CommandMessage(event))
	return ok
}

// dispatch routes command tags to the batch tracker. Start wins over the
// other tags; an ingredient command without a recognizable ingredient falls
// through to the completion check.
func (m *Monitor) dispatch(ctx context.Context, event model.CommandEvent) bool {
	if m.Tracker == nil {
		return false
	}
	tags := make(map[string]bool, len(event.Commands))
	for _, t := range event.Commands {
		tags[t] = true
	}

	if tags[voice.CommandStartBatch] {
		if _, err := m.Tracker.StartBatch(ctx); err != nil {
			slog.Warn("[monitor] start batch failed", "error", err)
			return false
		}
		return true
	}
	if tags[voice.CommandAddIngredient] {
		if kind, found := m.Classifier.IngredientType(event.Transcript); found {
			if _, err := m.Tracker.AddIngredient(ctx, kind); err != nil {
				slog.Warn("[monitor] add ingredient failed", "error", err)
				return false
			}
			return true
		}
		slog.Debug("[monitor] ingredient command without a known ingredient",
			"transcript", event.Transcript)
	}
	if tags[voice.CommandCompleteBatch] {
		if _, err := m.Tracker.CompleteBatch(ctx); err != nil {
			slog.Warn("[monitor] complete batch failed", "error", err)
			return false
		}
		return true
	}
	return false
}

// publish posts a stream message to the hub's ingest endpoint.
func (m *Monitor) publish(msg model.StreamMessage) {
	if m.HubURL == "" {
		return
	}
	line, err := parser.EncodeStream(msg)
	if err != nil {
		return
	}
	resp, err := m.client.Post(m.HubURL+"/api/readings", "application/json", strings.NewReader(line))
	if err != nil {
		slog.Warn("[monitor] hub publish failed", "error", err)
		return
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		slog.Warn("[monitor] discard hub response", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		slog.Warn("[monitor] close hub response", "error", err)
	}
}

// Start launches the periodic monitoring loop.
func (m *Monitor) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	if m.Interval <= 0 {
		m.Interval = DefaultMonitorInterval
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.RunCycle(ctx)
			}
		}
	}()
	return nil
}

// Stop halts the monitoring loop and waits for the current cycle to finish.
func (m *Monitor) Stop() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
