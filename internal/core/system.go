package core

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"BrewSense/internal/brew"
	"BrewSense/internal/device"
	"BrewSense/internal/model"
	"BrewSense/internal/sensor"
	"BrewSense/internal/voice"
	"BrewSense/internal/webhook"
)

// System manages the lifecycle of the main components (Hub, Monitor, sensor
// and voice pipelines). It loads configuration from a YAML file and
// constructs objects accordingly.
type System struct {
	cfgPath string
	Cfg     *model.Config

	Hub      *Hub
	Monitor  *Monitor
	Sampler  *sensor.Sampler
	Listener *voice.Listener
	Conn     *webhook.Connector
	Tracker  *brew.Tracker

	timer device.PulseTimer

	started   bool
	startLock sync.Mutex
}

// NewSystem reads the YAML configuration at cfgPath and creates a System
// instance with the hub, sensor pipeline, voice pipeline, webhook connector,
// batch tracker and monitor wired together.
func NewSystem(cfgPath string) (*System, error) {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	var cfg model.Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	s := &System{cfgPath: cfgPath, Cfg: &cfg}

	s.Sampler, s.timer, err = buildSampler(cfg.Sensor)
	if err != nil {
		return nil, err
	}

	classifier := voice.NewClassifier(cfg.Voice.Commands, cfg.Voice.Ingredients)
	s.Listener, err = buildListener(cfg.Voice, classifier)
	if err != nil {
		return nil, err
	}

	s.Conn = buildConnector(cfg.Webhooks)
	s.Tracker = brew.NewTracker(s.Sampler, s.Conn)

	hubAddr := cfg.Global.HubAddr
	if hubAddr == "" {
		hubAddr = DefaultHubAddr
	}
	s.Hub = NewHub(hubAddr)

	var listener Listener
	if s.Listener != nil {
		listener = s.Listener
	}
	s.Monitor = NewMonitor(s.Sampler, listener, s.Conn, s.Tracker, HubHTTPURL(hubAddr))
	s.Monitor.Classifier = classifier
	if cfg.Sensor.SampleIntervalMs > 0 {
		s.Monitor.Interval = time.Duration(cfg.Sensor.SampleIntervalMs) * time.Millisecond
	}
	return s, nil
}

// buildSampler constructs the level sampling pipeline for the configured
// probe mode.
func buildSampler(cfg model.SensorConfig) (*sensor.Sampler, device.PulseTimer, error) {
	var timer device.PulseTimer
	switch cfg.Mode {
	case "serial":
		timer = device.NewSerialPulseTimer(cfg.Device, cfg.Baud)
	case "simulated":
		timer = device.NewSimulatedPulseTimer(cfg.SimMinCM, cfg.SimMaxCM, 0)
	default:
		return nil, nil, fmt.Errorf("unknown sensor mode %q", cfg.Mode)
	}

	conv := sensor.NewConverter()
	if cfg.MinValidCM > 0 {
		conv.MinCM = cfg.MinValidCM
	}
	if cfg.MaxValidCM > 0 {
		conv.MaxCM = cfg.MaxValidCM
	}
	conv.SimulateOnInvalid = cfg.SimulateOnInvalid
	if cfg.FallbackCM > 0 {
		conv.FallbackCM = cfg.FallbackCM
	}

	smp := sensor.NewSampler(timer, conv, sensor.NewFilter(cfg.WindowSize), sensor.NewStore(cfg.LogFile))
	if cfg.PulseTimeoutMs > 0 {
		smp.PulseTimeout = time.Duration(cfg.PulseTimeoutMs) * time.Millisecond
	}
	return smp, timer, nil
}

// buildListener constructs the voice pipeline, or returns nil when voice is
// disabled.
func buildListener(cfg model.VoiceConfig, cl *voice.Classifier) (*voice.Listener, error) {
	switch cfg.Mode {
	case "", "off":
		return nil, nil
	case "portaudio", "simulated":
	default:
		return nil, fmt.Errorf("unknown voice mode %q", cfg.Mode)
	}

	var rec voice.Recorder
	var err error
	if cfg.Mode == "portaudio" {
		rec, err = voice.NewPortAudioRecorder(cfg.SampleRate, cfg.Channels, cfg.BitDepth, cfg.SilenceLevel)
		if err != nil {
			return nil, fmt.Errorf("voice recorder: %w", err)
		}
	} else {
		rec = voice.NewSimulatedRecorder(cfg.SampleRate, cfg.BitDepth)
	}

	var tr voice.Transcriber
	switch cfg.Transcriber {
	case "", "whisper":
		tr, err = voice.NewWhisperTranscriber()
		if err != nil {
			return nil, fmt.Errorf("voice transcriber: %w", err)
		}
	case "scripted":
		tr = voice.NewScriptedTranscriber(cfg.ScriptLines)
	default:
		return nil, fmt.Errorf("unknown transcriber %q", cfg.Transcriber)
	}

	l := voice.NewListener(rec, tr, cl)
	if cfg.SampleRate > 0 {
		l.SampleRate = cfg.SampleRate
	}
	if cfg.Channels > 0 {
		l.Channels = cfg.Channels
	}
	if cfg.BitDepth > 0 {
		l.BitDepth = cfg.BitDepth
	}
	if cfg.RecordWindowMs > 0 {
		l.Window = time.Duration(cfg.RecordWindowMs) * time.Millisecond
	}
	return l, nil
}

// buildConnector constructs the webhook connector with any configured retry
// overrides.
func buildConnector(cfg model.WebhookConfig) *webhook.Connector {
	conn := webhook.NewConnector(cfg.SensorURL, cfg.CommandURL)
	for _, snd := range []*webhook.Sender{conn.Sensor, conn.Command} {
		if snd == nil {
			continue
		}
		if cfg.MaxAttempts > 0 {
			snd.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.RetryWaitMs > 0 {
			snd.RetryWait = time.Duration(cfg.RetryWaitMs) * time.Millisecond
		}
	}
	return conn
}

// HubHTTPURL derives the hub's HTTP base URL from its listen address.
func HubHTTPURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	if !strings.Contains(addr, "://") {
		return "http://" + addr
	}
	return addr
}

// HubWSURL derives the hub's websocket subscribe URL from its listen
// address.
func HubWSURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "ws://localhost" + addr + "/ws"
	}
	if !strings.Contains(addr, "://") {
		return "ws://" + addr + "/ws"
	}
	return addr
}

// StartAll starts the hub and the monitoring loop.
func (s *System) StartAll() error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}
	go s.Hub.Start()
	if err := s.Monitor.Start(); err != nil {
		return err
	}
	s.started = true
	return nil
}

// StopAll stops all running components gracefully.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if !s.started {
		return
	}
	s.Monitor.Stop()
	if s.Listener != nil {
		_ = s.Listener.Close()
	}
	if s.timer != nil {
		_ = s.timer.Close()
	}
	s.Hub.Stop()
	s.started = false
}
