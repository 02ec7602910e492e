// Standalone brewing console: serves the dashboard, archives the hub stream
// into bbolt and forwards operator commands back to the hub. Run this when
// the console lives on a different host than the monitor.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"BrewSense/internal/app"
	"BrewSense/internal/model"
	"BrewSense/internal/util"
)

func main() {
	addr := flag.String("addr", ":8080", "console listen address")
	dbPath := flag.String("db", "", "bbolt archive path (default tmp/console.db)")
	hubAddr := flag.String("hub", ":8000", "hub address to subscribe and forward to")
	streamURL := flag.String("stream", "", "hub websocket URL (derived from -hub when empty)")
	username := flag.String("user", "", "console username (default admin)")
	password := flag.String("pass", "", "console password")
	logLevel := flag.String("log", "info", "log level (debug/info/warn/error)")
	flag.Parse()

	util.SetupLogger(*logLevel)

	cfg := model.ConsoleConfig{
		Addr:      *addr,
		DBPath:    *dbPath,
		StreamURL: *streamURL,
		Username:  *username,
		Password:  *password,
	}
	console, err := app.NewConsole(cfg, *hubAddr)
	if err != nil {
		slog.Error("[main] failed to create console", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := console.Start(); err != nil {
			slog.Error("[main] console server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("[main] console shutting down")
	console.Stop()
}
