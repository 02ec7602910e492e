// Package parser implements the JSON codec for hub stream messages
// and command events.
package parser

import (
	"encoding/json"
	"errors"

	"BrewSense/internal/model"
)

// Stream message types broadcast by the hub.
const (
	TypeSensorReading = "sensor_reading"
	TypeVoiceCommand  = "voice_command"
)

// EncodeStream encodes a StreamMessage into a JSON string.
func EncodeStream(m model.StreamMessage) (string, error) {
	b, err := json.Marshal(m)
	return string(b), err
}

// DecodeStream decodes a JSON string into a StreamMessage.
// Messages without a type are rejected.
func DecodeStream(s string) (model.StreamMessage, error) {
	var m model.StreamMessage
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return model.StreamMessage{}, err
	}
	if m.Type == "" {
		return model.StreamMessage{}, errors.New("stream message missing type")
	}
	return m, nil
}

// ReadingMessage wraps a filtered reading in a stream envelope.
func ReadingMessage(r model.FilteredReading) model.StreamMessage {
	return model.StreamMessage{
		Type:      TypeSensorReading,
		Value:     r.Reading,
		Timestamp: r.Timestamp,
	}
}

// CommandMessage wraps a command event in a stream envelope.
func CommandMessage(e model.CommandEvent) model.StreamMessage {
	return model.StreamMessage{
		Type:       TypeVoiceCommand,
		Transcript: e.Transcript,
		Commands:   e.Commands,
		Timestamp:  e.Timestamp,
	}
}

// DecodeCommand decodes a JSON string into a CommandEvent.
func DecodeCommand(s string) (model.CommandEvent, error) {
	var e model.CommandEvent
	err := json.Unmarshal([]byte(s), &e)
	return e, err
}

// EncodeCommand encodes a CommandEvent into a JSON string.
func EncodeCommand(e model.CommandEvent) (string, error) {
	b, err := json.Marshal(e)
	return string(b), err
}
