package app

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"BrewSense/internal/core"
	"BrewSense/internal/model"
)

// Console is the web dashboard and archive for the BrewSense stream. It
// subscribes to the hub, stores every broadcast message in BoltDB and serves
// the dashboard plus a small query API over the archive.
type Console struct {
	Cfg    model.ConsoleConfig
	DB     *bbolt.DB
	Tmpl   *template.Template
	Mux    *http.ServeMux
	Server *http.Server

	hubURL     string
	stream     *core.StreamClient
	streamStop func()
	archStop   chan struct{}
	wg         sync.WaitGroup
}

// NewConsole initializes the console with templates, database, routes and a
// stream subscription derived from the hub address.
func NewConsole(cfg model.ConsoleConfig, hubAddr string) (*Console, error) {
	cwd, _ := os.Getwd()
	tmplPath := filepath.Join(cwd, "web", "templates", "*.html")

	tmpl := template.New("").Funcs(template.FuncMap{
		"year": func() int { return time.Now().Year() },
	})

	tmpl, err := tmpl.ParseGlob(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("[console] failed to load templates: %w", err)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = filepath.Join("tmp", "console.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("[console] failed to create %s: %w", filepath.Dir(dbPath), err)
	}

	db, err := bbolt.Open(dbPath, 0o666, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("[console] failed to open BoltDB: %w", err)
	}

	c := &Console{
		Cfg:      cfg,
		DB:       db,
		Tmpl:     tmpl,
		Mux:      http.NewServeMux(),
		hubURL:   core.HubHTTPURL(hubAddr),
		archStop: make(chan struct{}),
	}

	streamURL := cfg.StreamURL
	if streamURL == "" {
		streamURL = core.HubWSURL(hubAddr)
	}
	c.stream = core.NewStreamClient(streamURL)

	c.registerRoutes()
	return c, nil
}

// Start launches the archiver and the web server and blocks until stopped.
func (c *Console) Start() error {
	addr := c.Cfg.Addr
	if addr == "" {
		slog.Info("[console] not started (empty address)")
		return nil
	}

	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	if c.stream != nil {
		ch := make(chan model.StreamMessage, 16)
		c.streamStop = c.stream.Start(ch)
		c.wg.Add(1)
		go c.archive(ch)
	}

	c.Server = &http.Server{Addr: addr, Handler: c.Mux}
	slog.Info("[console] listening", "addr", addr)

	if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("console server: %w", err)
	}
	return nil
}

// Stop gracefully stops the archiver, the web server and the database.
func (c *Console) Stop() {
	if c == nil {
		return
	}

	if c.streamStop != nil {
		c.streamStop()
	}
	select {
	case <-c.archStop:
	default:
		close(c.archStop)
	}
	c.wg.Wait()

	if c.Server != nil {
		slog.Info("[console] shutting down web server")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(ctx); err != nil {
			slog.Warn("[console] server shutdown", "error", err)
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			slog.Warn("[console] close BoltDB", "error", err)
		}
	}
}
