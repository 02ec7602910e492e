// Standalone broadcast hub. Accepts stream messages on /api/readings and
// voice commands on /api/command, and fans them out to websocket subscribers
// on /ws. Run this when the monitor and the console live on different hosts.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"BrewSense/internal/core"
	"BrewSense/internal/util"
)

func main() {
	addr := flag.String("addr", core.DefaultHubAddr, "listen address")
	logLevel := flag.String("log", "info", "log level (debug/info/warn/error)")
	flag.Parse()

	util.SetupLogger(*logLevel)

	hub := core.NewHub(*addr)
	go hub.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("[main] hub shutting down")
	hub.Stop()
}
