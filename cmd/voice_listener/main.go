// Voice listener agent: records short windows from the microphone,
// transcribes them and classifies brewing commands. Recognized events are
// forwarded to the hub and the command webhook. Run this on the host with
// the microphone when the monitor lives elsewhere.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"BrewSense/internal/model"
	"BrewSense/internal/parser"
	"BrewSense/internal/util"
	"BrewSense/internal/voice"
	"BrewSense/internal/webhook"
)

func main() {
	// .env may carry OPENAI_API_KEY for the whisper transcriber.
	_ = godotenv.Load()

	mode := flag.String("mode", "portaudio", "recorder mode (portaudio|simulated)")
	transcriber := flag.String("transcriber", "whisper", "transcriber (whisper|scripted)")
	script := flag.String("script", "", "comma-separated lines for the scripted transcriber")
	rate := flag.Int("rate", voice.DefaultSampleRate, "sample rate")
	bitDepth := flag.Int("bit-depth", voice.DefaultBitDepth, "sample bit depth")
	silence := flag.Float64("silence", voice.DefaultSilenceLevel, "silence gate as a fraction of full scale")
	windowMs := flag.Int("window", 5000, "record window ms")
	hubURL := flag.String("hub", "", "hub base URL to forward commands to (empty to disable)")
	webhookURL := flag.String("webhook", "", "command webhook URL (empty to disable)")
	logLevel := flag.String("log", "info", "log level (debug/info/warn/error)")
	flag.Parse()

	util.SetupLogger(*logLevel)

	var rec voice.Recorder
	var err error
	switch *mode {
	case "portaudio":
		rec, err = voice.NewPortAudioRecorder(*rate, voice.DefaultChannels, *bitDepth, *silence)
		if err != nil {
			slog.Error("[listener] open recorder failed", "error", err)
			os.Exit(1)
		}
	case "simulated":
		rec = voice.NewSimulatedRecorder(*rate, *bitDepth)
	default:
		slog.Error("[listener] unknown mode", "mode", *mode)
		os.Exit(1)
	}

	var tr voice.Transcriber
	switch *transcriber {
	case "whisper":
		tr, err = voice.NewWhisperTranscriber()
		if err != nil {
			slog.Error("[listener] transcriber setup failed", "error", err)
			os.Exit(1)
		}
	case "scripted":
		var lines []string
		if *script != "" {
			lines = strings.Split(*script, ",")
		}
		tr = voice.NewScriptedTranscriber(lines)
	default:
		slog.Error("[listener] unknown transcriber", "transcriber", *transcriber)
		os.Exit(1)
	}

	l := voice.NewListener(rec, tr, nil)
	l.SampleRate = *rate
	l.BitDepth = *bitDepth
	l.Window = time.Duration(*windowMs) * time.Millisecond

	conn := webhook.NewConnector("", *webhookURL)
	client := &http.Client{Timeout: 5 * time.Second}

	events := make(chan model.CommandEvent, 8)
	stopListen, err := l.Start(events)
	if err != nil {
		slog.Error("[listener] start failed", "error", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	slog.Info("[listener] listening", "mode", *mode, "window_ms", *windowMs)
	for {
		select {
		case <-stop:
			slog.Info("[listener] shutting down")
			stopListen()
			if cerr := l.Close(); cerr != nil {
				slog.Warn("[listener] close recorder failed", "error", cerr)
			}
			return
		case ev := <-events:
			slog.Info("[listener] command event", "transcript", ev.Transcript, "commands", ev.Commands)
			if *hubURL != "" {
				postCommand(client, *hubURL, ev)
			}
			if len(ev.Commands) > 0 {
				if err := conn.SendCommand(context.Background(), ev.Commands); err != nil {
					slog.Warn("[listener] webhook delivery failed", "error", err)
				}
			}
		}
	}
}

// postCommand forwards one event to the hub's command endpoint.
func postCommand(client *http.Client, hubURL string, ev model.CommandEvent) {
	body, err := parser.EncodeCommand(ev)
	if err != nil {
		slog.Warn("[listener] encode command failed", "error", err)
		return
	}
	resp, err := client.Post(hubURL+"/api/command", "application/json", strings.NewReader(body))
	if err != nil {
		slog.Warn("[listener] hub post failed", "error", err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	if cerr := resp.Body.Close(); cerr != nil {
		slog.Warn("[listener] close hub response failed", "error", cerr)
	}
}
