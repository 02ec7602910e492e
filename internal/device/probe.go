// Package device implements the serial level probe,
// which exchanges trigger commands and echo timings with the probe firmware.
package device

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"BrewSense/internal/model"
	"BrewSense/internal/parser"
)

// settleDelay is how long the probe gets to stabilize after opening the port
// before the first trigger is sent.
const settleDelay = 500 * time.Millisecond

// readMargin is added to the pulse timeout when waiting for the response
// line, covering trigger and line transmission latency.
const readMargin = 200 * time.Millisecond

// SerialPulseTimer measures ultrasonic pulses through a serial-attached probe.
// The firmware owns the trigger and echo pins; this side only requests a
// measurement and parses the reported timing.
type SerialPulseTimer struct {
	Device string
	Baud   int
	Serial *SerialDevice
}

// NewSerialPulseTimer creates a pulse timer for the probe at the given port.
// The port is opened lazily on the first measurement.
func NewSerialPulseTimer(dev string, baud int) *SerialPulseTimer {
	return &SerialPulseTimer{Device: dev, Baud: baud}
}

// Open connects to the probe and lets it settle before the first trigger.
func (p *SerialPulseTimer) Open() error {
	if p.Serial != nil {
		return nil
	}
	sd, err := NewSerialDevice(p.Device, p.Baud)
	if err != nil {
		return fmt.Errorf("open probe serial failed: %w", err)
	}
	time.Sleep(settleDelay)
	if err := sd.Drain(); err != nil {
		_ = sd.Close()
		return fmt.Errorf("drain probe serial failed: %w", err)
	}
	p.Serial = sd
	return nil
}

// Close closes the probe port safely.
func (p *SerialPulseTimer) Close() error {
	if p.Serial == nil {
		return nil
	}
	err := p.Serial.Close()
	p.Serial = nil
	return err
}

// MeasurePulse triggers one measurement and waits for the echo timing line.
// A missing or late response counts as a timed-out observation; only
// device-level faults are errors.
func (p *SerialPulseTimer) MeasurePulse(timeout time.Duration) (model.PulseObservation, error) {
	if err := p.Open(); err != nil {
		return model.PulseObservation{}, err
	}
	if err := p.Serial.WriteLine(parser.TriggerCommand); err != nil {
		return model.PulseObservation{}, fmt.Errorf("trigger probe: %w", err)
	}
	line, err := p.Serial.ReadLine(timeout + readMargin)
	if err != nil {
		if errors.Is(err, ErrReadTimeout) {
			return model.PulseObservation{TimedOut: true}, nil
		}
		return model.PulseObservation{}, fmt.Errorf("read probe response: %w", err)
	}
	obs, err := parser.ParsePulseLine(line)
	if err != nil {
		return model.PulseObservation{}, fmt.Errorf("probe response: %w", err)
	}
	return obs, nil
}

// ProbeFirmware emulates the probe microcontroller on the far end of a
// virtual serial pair. It answers trigger commands with synthetic echo
// timings so the sampling pipeline can run without hardware.
type ProbeFirmware struct {
	Device       string
	Baud         int
	MinCM        float64
	MaxCM        float64
	TimeoutEvery int // every Nth trigger answers with a timeout; 0 disables
	Serial       *SerialDevice
}

// NewProbeFirmware creates a firmware simulator writing to the given port.
func NewProbeFirmware(dev string, baud int, minCM, maxCM float64) *ProbeFirmware {
	return &ProbeFirmware{Device: dev, Baud: baud, MinCM: minCM, MaxCM: maxCM}
}

// Run serves trigger commands until stop is closed.
func (f *ProbeFirmware) Run(stop <-chan struct{}) error {
	sd, err := NewSerialDevice(f.Device, f.Baud)
	if err != nil {
		return fmt.Errorf("open firmware serial failed: %w", err)
	}
	f.Serial = sd
	defer func() {
		if cerr := f.Serial.Close(); cerr != nil {
			slog.Warn("[firmware] close serial failed", "err", cerr)
		}
	}()

	slog.Info("[firmware] probe simulator started", "device", f.Device, "baud", f.Baud)

	count := 0
	for {
		select {
		case <-stop:
			slog.Info("[firmware] probe simulator stopped")
			return nil
		default:
		}

		line, err := f.Serial.ReadLine(200 * time.Millisecond)
		if err != nil {
			if !errors.Is(err, ErrReadTimeout) {
				time.Sleep(200 * time.Millisecond)
			}
			continue
		}
		if strings.TrimSpace(line) != parser.TriggerCommand {
			continue
		}
		count++
		if err := f.Serial.WriteLine(f.response(count)); err != nil {
			slog.Warn("[firmware] write response failed", "err", err)
		}
	}
}

// response builds the reply for the nth trigger.
func (f *ProbeFirmware) response(n int) string {
	if f.TimeoutEvery > 0 && n%f.TimeoutEvery == 0 {
		return parser.TimeoutResponse
	}
	d := f.MinCM + rand.Float64()*(f.MaxCM-f.MinCM)
	us := int64(2 * d / speedOfSoundCMS * 1e6)
	return strconv.FormatInt(us, 10)
}
