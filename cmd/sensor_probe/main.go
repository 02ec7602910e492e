// Sensor probe agent: samples the vat level on its own schedule and forwards
// readings to the hub and the sensor webhook (worker pool). Run this on the
// probe host when the rest of the system lives elsewhere.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"BrewSense/internal/device"
	"BrewSense/internal/model"
	"BrewSense/internal/parser"
	"BrewSense/internal/sensor"
	"BrewSense/internal/util"
	"BrewSense/internal/webhook"
)

func main() {
	mode := flag.String("mode", "serial", "probe mode (serial|simulated)")
	dev := flag.String("dev", "/dev/ttyUSB0", "probe serial device")
	baud := flag.Int("baud", 9600, "serial baud")
	window := flag.Int("window", sensor.DefaultWindowSize, "moving average window size")
	interval := flag.Int("interval", 5000, "ms between samples")
	logFile := flag.String("log-file", sensor.DefaultLogFile, "reading log file (empty to disable)")
	hubURL := flag.String("hub", "", "hub base URL to forward readings to (empty to disable)")
	webhookURL := flag.String("webhook", "", "sensor webhook URL (empty to disable)")
	simMin := flag.Float64("sim-min", 0, "simulated mode minimum level cm")
	simMax := flag.Float64("sim-max", 0, "simulated mode maximum level cm")
	logLevel := flag.String("log", "info", "log level (debug/info/warn/error)")
	flag.Parse()

	util.SetupLogger(*logLevel)

	var timer device.PulseTimer
	switch *mode {
	case "serial":
		timer = device.NewSerialPulseTimer(*dev, *baud)
	case "simulated":
		timer = device.NewSimulatedPulseTimer(*simMin, *simMax, 0)
	default:
		slog.Error("[probe] unknown mode", "mode", *mode)
		os.Exit(1)
	}
	defer func() {
		if cerr := timer.Close(); cerr != nil {
			slog.Warn("[probe] close timer failed", "error", cerr)
		}
	}()

	var store *sensor.Store
	if *logFile != "" {
		store = sensor.NewStore(*logFile)
	}
	smp := sensor.NewSampler(timer, sensor.NewConverter(), sensor.NewFilter(*window), store)
	conn := webhook.NewConnector(*webhookURL, "")

	// forward workers
	forwardCh := make(chan model.FilteredReading, 64)
	var wg sync.WaitGroup
	client := &http.Client{Timeout: 5 * time.Second}
	for i := range 4 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for r := range forwardCh {
				forward(client, *hubURL, conn, id, r)
			}
		}(i)
	}

	slog.Info("[probe] sampling", "mode", *mode, "interval_ms", *interval)
	ticker := time.NewTicker(time.Duration(*interval) * time.Millisecond)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-stop:
			slog.Info("[probe] shutting down")
			close(forwardCh)
			wg.Wait()
			return
		case <-ticker.C:
			r, err := smp.Sample()
			if err != nil {
				if errors.Is(err, sensor.ErrPulseTimeout) {
					slog.Debug("[probe] echo timed out")
				} else {
					slog.Warn("[probe] sample failed", "error", err)
				}
				continue
			}
			slog.Info("[probe] level", "cm", r.Reading)
			select {
			case forwardCh <- r:
			default:
				slog.Warn("[probe] forward queue full, dropping reading")
			}
		}
	}
}

// forward delivers one reading to the hub and the sensor webhook, whichever
// are configured.
func forward(client *http.Client, hubURL string, conn *webhook.Connector, worker int, r model.FilteredReading) {
	if hubURL != "" {
		msg, err := parser.EncodeStream(parser.ReadingMessage(r))
		if err != nil {
			slog.Warn("[probe] encode reading failed", "worker", worker, "error", err)
		} else {
			resp, err := client.Post(hubURL+"/api/readings", "application/json", strings.NewReader(msg))
			if err != nil {
				slog.Warn("[probe] hub post failed", "worker", worker, "error", err)
			} else {
				_, _ = io.Copy(io.Discard, resp.Body)
				if cerr := resp.Body.Close(); cerr != nil {
					slog.Warn("[probe] close hub response failed", "worker", worker, "error", cerr)
				}
			}
		}
	}
	if err := conn.SendReading(context.Background(), r.Reading); err != nil {
		slog.Warn("[probe] webhook delivery failed", "worker", worker, "error", err)
	}
}
