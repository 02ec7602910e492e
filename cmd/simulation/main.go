// Probe simulator: creates a virtual serial pair with socat and runs the
// probe firmware emulator on one end. Point the sensor pipeline at the other
// end for local testing without real hardware.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BrewSense/internal/device"
	"BrewSense/internal/util"
)

// waitForLink polls until socat has created the PTY link.
func waitForLink(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Lstat(path); err == nil {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("link %s did not appear within %s", path, timeout)
}

func main() {
	left := flag.String("left", "/tmp/brewsense-probe", "PTY link for the sampling side")
	right := flag.String("right", "/tmp/brewsense-firmware", "PTY link for the firmware side")
	baud := flag.Int("baud", 9600, "baud rate")
	minCM := flag.Float64("min", 20, "minimum simulated level cm")
	maxCM := flag.Float64("max", 160, "maximum simulated level cm")
	timeoutEvery := flag.Int("timeout-every", 0, "answer every Nth trigger with a timeout (0 disables)")
	logLevel := flag.String("log", "info", "log level (debug/info/warn/error)")
	flag.Parse()

	util.SetupLogger(*logLevel)

	mgr := util.NewSocatManager()
	if err := mgr.CreatePair(*left, *right); err != nil {
		slog.Error("[sim] create virtual serial pair failed", "error", err)
		os.Exit(1)
	}
	defer mgr.Cleanup()

	if err := waitForLink(*right, 3*time.Second); err != nil {
		slog.Error("[sim] virtual serial not ready", "error", err)
		os.Exit(1)
	}

	fw := device.NewProbeFirmware(*right, *baud, *minCM, *maxCM)
	fw.TimeoutEvery = *timeoutEvery

	stopFw := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- fw.Run(stopFw) }()

	slog.Info("[sim] probe available", "device", *left, "min_cm", *minCM, "max_cm", *maxCM)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("[sim] shutting down")
	close(stopFw)
	if err := <-done; err != nil {
		slog.Warn("[sim] firmware stopped with error", "error", err)
	}
}
