// Package model defines shared message structures for BrewSense.
package model

import "time"

// PulseObservation is the raw result of one ultrasonic trigger/echo cycle.
// A timed-out echo is a normal outcome, not an error.
type PulseObservation struct {
	Duration time.Duration
	TimedOut bool
}

// FilteredReading is one smoothed level sample, as persisted and broadcast.
type FilteredReading struct {
	Timestamp string  `json:"timestamp"`
	Reading   float64 `json:"reading"`
}

// CommandEvent carries one transcribed utterance and its matched command tags.
type CommandEvent struct {
	Transcript string   `json:"transcript"`
	Commands   []string `json:"commands"`
	Timestamp  string   `json:"timestamp"`
}

// StreamMessage is the envelope broadcast to websocket subscribers.
// Type is "sensor_reading" or "voice_command".
type StreamMessage struct {
	Type       string   `json:"type"`
	Value      float64  `json:"value,omitempty"`
	Transcript string   `json:"transcript,omitempty"`
	Commands   []string `json:"commands,omitempty"`
	Timestamp  string   `json:"timestamp"`
}

// Ingredient records one addition to a brew batch. Volume is the signed
// change of the filtered level between this addition and the previous one.
type Ingredient struct {
	Type      string  `json:"type"`
	Volume    float64 `json:"volume"`
	Timestamp string  `json:"timestamp"`
}

// Batch is one brew session tracked from start to completion.
type Batch struct {
	ID          string       `json:"batch_id"`
	StartTime   string       `json:"start_time"`
	Ingredients []Ingredient `json:"ingredients"`
	TotalVolume float64      `json:"total_volume"`
	CompletedAt string       `json:"completed_at,omitempty"`
}

// LevelPayload is the sensor webhook body.
type LevelPayload struct {
	LiquidLevel float64 `json:"liquid_level"`
}

// CommandPayload is the command webhook body.
type CommandPayload struct {
	VoiceCommand []string `json:"voice_command"`
}

// ReportPayload is a validated reading report for the reliable delivery path.
type ReportPayload struct {
	Timestamp string  `json:"timestamp"`
	Reading   float64 `json:"reading"`
	Status    string  `json:"status"`
}

// BatchSummary wraps a completed batch for the command webhook.
type BatchSummary struct {
	PotionData BatchData `json:"potion_data"`
}

// BatchData is the flattened batch content sent on completion.
type BatchData struct {
	StartTime      string       `json:"start_time"`
	Ingredients    []Ingredient `json:"ingredients"`
	TotalVolume    float64      `json:"total_volume"`
	CompletionTime string       `json:"completion_time"`
}
