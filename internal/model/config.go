// Package model defines shared configuration structures used to initialize the BrewSense system.
// It includes global settings, sensor, voice, webhook and console definitions.
package model

// Config represents the root structure loaded from configs/config.yml.
type Config struct {
	Global   GlobalConfig  `yaml:"global"`
	Sensor   SensorConfig  `yaml:"sensor"`
	Voice    VoiceConfig   `yaml:"voice"`
	Webhooks WebhookConfig `yaml:"webhooks"`
	Console  ConsoleConfig `yaml:"console"`
}

// GlobalConfig defines shared defaults across the system.
type GlobalConfig struct {
	HubAddr  string `yaml:"hub_addr"`  // address for the broadcast hub (e.g. ":8000")
	LogLevel string `yaml:"log_level"` // debug/info/warn/error
}

// SensorConfig defines the level probe and sampling pipeline.
type SensorConfig struct {
	Mode              string  `yaml:"mode"` // serial | simulated
	Device            string  `yaml:"device"`
	Baud              int     `yaml:"baud"`
	WindowSize        int     `yaml:"window_size"`
	MinValidCM        float64 `yaml:"min_valid_cm"`
	MaxValidCM        float64 `yaml:"max_valid_cm"`
	PulseTimeoutMs    int     `yaml:"pulse_timeout_ms"`
	SimulateOnInvalid bool    `yaml:"simulate_on_invalid"`
	FallbackCM        float64 `yaml:"fallback_cm"`
	SimMinCM          float64 `yaml:"sim_min_cm"` // simulated mode distance range
	SimMaxCM          float64 `yaml:"sim_max_cm"`
	LogFile           string  `yaml:"log_file"`
	SampleIntervalMs  int     `yaml:"sample_interval_ms"`
}

// VoiceConfig defines the voice command pipeline.
type VoiceConfig struct {
	Mode           string   `yaml:"mode"`        // portaudio | simulated | off
	Transcriber    string   `yaml:"transcriber"` // whisper | scripted
	SampleRate     int      `yaml:"sample_rate"`
	Channels       int      `yaml:"channels"`
	BitDepth       int      `yaml:"bit_depth"`
	SilenceLevel   float64  `yaml:"silence_level"` // fraction of full scale
	RecordWindowMs int      `yaml:"record_window_ms"`
	ScriptLines    []string `yaml:"script_lines"` // scripted transcriber input

	// Optional keyword table overrides, merged over the built-in defaults.
	Commands    map[string][]string `yaml:"commands"`
	Ingredients map[string][]string `yaml:"ingredients"`
}

// WebhookConfig defines the outbound Power Automate endpoints.
type WebhookConfig struct {
	SensorURL   string `yaml:"sensor_url"`
	CommandURL  string `yaml:"command_url"`
	MaxAttempts int    `yaml:"max_attempts"`
	RetryWaitMs int    `yaml:"retry_wait_ms"`
}

// ConsoleConfig defines the dashboard web app.
type ConsoleConfig struct {
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"db_path"`
	StreamURL string `yaml:"stream_url"` // hub websocket URL; derived from hub_addr when empty
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}
