package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"BrewSense/internal/model"
)

// DefaultLogFile is where filtered readings are appended.
const DefaultLogFile = "sensor_readings.json"

// Store persists filtered readings as an indented JSON array.
// Every append loads the whole log and rewrites it; a crash mid-write can
// lose the file, which is an accepted trade-off for a human-inspectable log.
// Not safe for concurrent appends.
type Store struct {
	Path string
}

// NewStore creates a store writing to path.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultLogFile
	}
	return &Store{Path: path}
}

// Load reads the current log. A missing file is an empty log; a corrupt
// file is logged and treated as empty so the next append re-initializes it.
func (s *Store) Load() ([]model.FilteredReading, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.FilteredReading{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reading log: %w", err)
	}
	var entries []model.FilteredReading
	if err := json.Unmarshal(b, &entries); err != nil {
		slog.Warn("[store] reading log corrupt, starting fresh", "path", s.Path, "err", err)
		return []model.FilteredReading{}, nil
	}
	return entries, nil
}

// Append adds one reading to the log and rewrites the file.
func (s *Store) Append(r model.FilteredReading) error {
	entries, err := s.Load()
	if err != nil {
		return err
	}
	entries = append(entries, r)
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reading log: %w", err)
	}
	if err := os.WriteFile(s.Path, b, 0o644); err != nil {
		return fmt.Errorf("write reading log: %w", err)
	}
	return nil
}
