// Package core contains the main runtime logic and orchestration layer for
// the BrewSense system. It defines the broadcast Hub, the StreamClient
// subscriber, the Monitor loop and the System type that manages their
// lifecycle.
package core

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"BrewSense/internal/parser"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// DefaultHubAddr is where the hub listens when no address is configured.
const DefaultHubAddr = ":8000"

// Hub is a lightweight in-memory broadcast server. Producers post readings
// and command events over HTTP; every message is fanned out to the connected
// websocket subscribers.
type Hub struct {
	Addr    string
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	server  *http.Server
}

// NewHub constructs a Hub listening on addr.
func NewHub(addr string) *Hub {
	if addr == "" {
		addr = DefaultHubAddr
	}
	return &Hub{Addr: addr, clients: map[*websocket.Conn]bool{}}
}

// Handler returns the hub's HTTP routes.
func (h *Hub) Handler() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/readings", h.handleReadings)
	mux.HandleFunc("/api/command", h.handleCommand)
	mux.HandleFunc("/ws", h.handleWS)
	return mux
}

// Start launches the HTTP server for the ingest and websocket endpoints.
// This call blocks until the server stops or fails.
func (h *Hub) Start() {
	h.server = &http.Server{Addr: h.Addr, Handler: h.Handler()}
	slog.Info("[hub] listening", "addr", h.Addr)
	if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("[hub] server failed", "error", err)
		os.Exit(1)
	}
}

// Stop shuts down the HTTP server and disconnects all subscribers.
func (h *Hub) Stop() {
	if h.server != nil {
		_ = h.server.Close()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
}

// handleReadings accepts a stream message posted by the sensor pipeline and
// broadcasts it. Messages without a type are rejected.
func (h *Hub) handleReadings(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	msg, err := parser.DecodeStream(string(body))
	if err != nil {
		http.Error(w, "invalid stream message", http.StatusBadRequest)
		return
	}
	out, _ := parser.EncodeStream(msg)
	h.broadcast(out)
	w.WriteHeader(http.StatusOK)
}

// handleCommand accepts a command event, wraps it in a stream envelope and
// broadcasts it.
func (h *Hub) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	event, err := parser.DecodeCommand(string(body))
	if err != nil {
		http.Error(w, "invalid command event", http.StatusBadRequest)
		return
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().Format(time.RFC3339)
	}
	out, _ := parser.EncodeStream(parser.CommandMessage(event))
	h.broadcast(out)
	w.WriteHeader(http.StatusAccepted)
}

// handleWS upgrades HTTP to websocket and registers the client for
// broadcasts. A read loop detects disconnects and unregisters the client.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			if err := conn.Close(); err != nil {
				slog.Warn("[hub] close websocket", "error", err)
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// broadcast sends a message to all connected websocket clients, dropping
// clients whose connection is dead.
func (h *Hub) broadcast(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			_ = c.Close()
			delete(h.clients, c)
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
