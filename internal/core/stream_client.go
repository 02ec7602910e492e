package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"BrewSense/internal/model"
	"BrewSense/internal/parser"
)

// reconnectDelay spaces out dial attempts when the hub is unreachable.
const reconnectDelay = 2 * time.Second

// StreamClient is a websocket peer of the hub. It connects lazily, marks
// itself disconnected on any failure and redials on the next use.
type StreamClient struct {
	URL string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStreamClient creates a client for the hub's /ws endpoint.
func NewStreamClient(url string) *StreamClient {
	return &StreamClient{URL: url}
}

// connect dials the hub. Callers hold the lock.
func (c *StreamClient) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.URL, nil)
	if err != nil {
		c.connected = false
		return fmt.Errorf("dial %s: %w", c.URL, err)
	}
	c.conn = conn
	c.connected = true
	slog.Info("[stream] connected", "url", c.URL)
	return nil
}

// Send publishes arbitrary data wrapped in a timestamped envelope. A failed
// write disconnects the client so the next call redials.
func (c *StreamClient) Send(data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		if err := c.connect(); err != nil {
			return err
		}
	}
	msg, err := json.Marshal(map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
		"data":      data,
	})
	if err != nil {
		return fmt.Errorf("encode stream data: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.connected = false
		return fmt.Errorf("write stream data: %w", err)
	}
	return nil
}

// Start launches a background receive loop that decodes broadcast stream
// messages and sends them to out. Connection failures trigger redials; the
// returned stop function is idempotent and waits for the loop to exit.
func (c *StreamClient) Start(out chan<- model.StreamMessage) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}

			c.mu.Lock()
			// Re-check under the lock: a stop between the check above and
			// here must not redial a connection nobody will close.
			select {
			case <-stop:
				c.mu.Unlock()
				return
			default:
			}
			if !c.connected {
				if err := c.connect(); err != nil {
					c.mu.Unlock()
					slog.Warn("[stream] connect failed", "error", err)
					select {
					case <-stop:
						return
					case <-time.After(reconnectDelay):
					}
					continue
				}
			}
			conn := c.conn
			c.mu.Unlock()

			_, raw, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-stop:
					return
				default:
				}
				slog.Warn("[stream] read failed, reconnecting", "error", err)
				c.markDisconnected()
				continue
			}

			msg, err := parser.DecodeStream(string(raw))
			if err != nil {
				slog.Debug("[stream] skipping unrecognized message", "error", err)
				continue
			}
			select {
			case out <- msg:
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			c.Close()
			wg.Wait()
		})
	}
}

func (c *StreamClient) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connected = false
}

// Close tears down the connection.
func (c *StreamClient) Close() {
	c.markDisconnected()
}
