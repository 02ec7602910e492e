package app

import (
	"net/http"
)

// registerRoutes sets up all HTTP handlers for the console.
func (c *Console) registerRoutes() {
	// Static files (CSS, JS)
	fs := http.FileServer(http.Dir("web/static"))
	c.Mux.Handle("/static/", http.StripPrefix("/static/", fs))

	// Public routes
	c.Mux.HandleFunc("/login", c.handleLogin)
	c.Mux.HandleFunc("/logout", c.handleLogout)

	// Authenticated routes
	c.Mux.HandleFunc("/", AuthMiddleware(c.handleDashboard))
	c.Mux.HandleFunc("/api/latest", AuthMiddleware(c.handleLatest))
	c.Mux.HandleFunc("/api/history", AuthMiddleware(c.handleHistory))
	c.Mux.HandleFunc("/api/command", AuthMiddleware(c.handleCommand))
}
