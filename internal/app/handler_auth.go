package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Fallback credentials when none are configured.
const (
	defaultUsername = "admin"
	defaultPassword = "1234"
)

// handleLogin displays a login form or processes login POST.
func (c *Console) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if err := c.Tmpl.ExecuteTemplate(w, "login.html", nil); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	case http.MethodPost:
		username := r.FormValue("username")
		password := r.FormValue("password")

		wantUser := c.Cfg.Username
		if wantUser == "" {
			wantUser = defaultUsername
		}
		wantPass := c.Cfg.Password
		if wantPass == "" {
			wantPass = defaultPassword
		}

		if username == wantUser && password == wantPass {
			http.SetCookie(w, &http.Cookie{
				Name:     "session_id",
				Value:    uuid.NewString(),
				Path:     "/",
				Expires:  time.Now().Add(24 * time.Hour),
				HttpOnly: true,
			})
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		http.Redirect(w, r, "/login?err=1", http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleLogout clears the session cookie.
func (c *Console) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "session_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	slog.Info("[console] user logged out")
}
