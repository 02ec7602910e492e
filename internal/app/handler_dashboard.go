package app

import (
	"log/slog"
	"net/http"
)

// handleDashboard renders the main dashboard page.
func (c *Console) handleDashboard(w http.ResponseWriter, r *http.Request) {
	slog.Debug("[console] GET / (dashboard)", "remote", r.RemoteAddr)
	data := map[string]any{
		"Title": "BrewSense Console",
	}
	if err := c.Tmpl.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
