// Package main is the entry point of the BrewSense system.
// It initializes the logger, loads the configuration, constructs all
// components (hub, monitor, sensor and voice pipelines, console) and starts
// them in a unified runtime.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"BrewSense/internal/app"
	"BrewSense/internal/core"
	"BrewSense/internal/util"
)

// main is the single entrypoint for the BrewSense application.
// It loads configuration, constructs the system and starts all components.
// The program waits for an interrupt signal and performs graceful shutdown.
func main() {
	// .env may carry OPENAI_API_KEY for the whisper transcriber.
	_ = godotenv.Load()

	cfgPath := flag.String("c", "configs/config.yml", "path to configuration file")
	flag.Parse()

	sys, err := core.NewSystem(*cfgPath)
	if err != nil {
		slog.Error("[main] failed to create system", "error", err)
		os.Exit(1)
	}
	util.SetupLogger(sys.Cfg.Global.LogLevel)
	slog.Info("[main] using config", "path", *cfgPath)

	if err := sys.StartAll(); err != nil {
		slog.Error("[main] failed to start system", "error", err)
		os.Exit(1)
	}

	var console *app.Console
	if sys.Cfg.Console.Addr != "" {
		console, err = app.NewConsole(sys.Cfg.Console, sys.Cfg.Global.HubAddr)
		if err != nil {
			sys.StopAll()
			slog.Error("[main] failed to create console", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := console.Start(); err != nil {
				slog.Error("[main] console server stopped", "error", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("[main] shutting down system")
	if console != nil {
		console.Stop()
	}
	sys.StopAll()
	slog.Info("[main] system stopped cleanly")
}
