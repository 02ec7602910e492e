// Package parser converts wire formats to structured types and vice-versa.
//
// Probe wire format (host -> firmware):
//
//	R
//
// Probe response format (firmware -> host), one line per trigger:
//
//	<round-trip time in microseconds>   e.g. "1454"
//	T                                   no echo within the firmware window
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"BrewSense/internal/model"
)

// Probe wire tokens shared by the host and the firmware simulator.
const (
	TriggerCommand  = "R"
	TimeoutResponse = "T"
)

// ParsePulseLine parses one response line from the probe firmware.
// Returns error on a malformed line; a timeout response is a normal result.
func ParsePulseLine(line string) (model.PulseObservation, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return model.PulseObservation{}, errors.New("empty pulse line")
	}
	if strings.EqualFold(s, TimeoutResponse) {
		return model.PulseObservation{TimedOut: true}, nil
	}
	us, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return model.PulseObservation{}, fmt.Errorf("invalid pulse line %q", line)
	}
	if us < 0 {
		return model.PulseObservation{}, fmt.Errorf("negative pulse duration %q", line)
	}
	return model.PulseObservation{Duration: time.Duration(us) * time.Microsecond}, nil
}
