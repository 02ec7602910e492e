// Package util provides helpers for virtual serial management using socat.
package util

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// SocatManager manages the lifecycle of socat-created virtual serial pairs.
// cmd/simulation uses it to link a fake probe firmware to a sampling loop
// without real hardware.
type SocatManager struct {
	mu     sync.Mutex
	cmds   []*exec.Cmd
	links  []string
	closed bool
}

// NewSocatManager initializes an empty manager.
func NewSocatManager() *SocatManager {
	return &SocatManager{}
}

// CreatePair starts a socat process that links two PTYs (bidirectional).
func (m *SocatManager) CreatePair(left, right string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := exec.Command(
		"socat", "-d", "-d",
		fmt.Sprintf("pty,raw,echo=0,link=%s", left),
		fmt.Sprintf("pty,raw,echo=0,link=%s", right),
	)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start socat: %w", err)
	}

	slog.Info("[virt-serial] started socat pair", "pid", cmd.Process.Pid, "left", left, "right", right)

	m.cmds = append(m.cmds, cmd)
	m.links = append(m.links, left, right)
	return nil
}

// Cleanup stops all socat processes and removes created links.
func (m *SocatManager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true

	for _, cmd := range m.cmds {
		if cmd.Process != nil {
			slog.Info("[virt-serial] killing socat", "pid", cmd.Process.Pid)
			_ = cmd.Process.Kill()
			_, _ = cmd.Process.Wait()
		}
	}

	for _, path := range m.links {
		if _, err := os.Lstat(path); err == nil {
			_ = os.Remove(path)
			slog.Info("[virt-serial] removed link", "path", path)
		}
	}

	slog.Info("[virt-serial] cleanup complete", "pairs", len(m.links)/2)
}
