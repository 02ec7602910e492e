package app

import (
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"BrewSense/internal/model"
	"BrewSense/internal/parser"
)

func newTestConsole(t *testing.T) *Console {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "console.db"), 0o666,
		&bbolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tmpl := template.Must(template.New("dashboard.html").Parse("<html>{{.Title}}</html>"))
	template.Must(tmpl.New("login.html").Parse("<html>login</html>"))

	c := &Console{
		Cfg:      model.ConsoleConfig{},
		DB:       db,
		Tmpl:     tmpl,
		Mux:      http.NewServeMux(),
		archStop: make(chan struct{}),
	}
	c.registerRoutes()
	return c
}

func authedGet(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "test-session"})
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func TestLatestAndHistory(t *testing.T) {
	c := newTestConsole(t)
	srv := httptest.NewServer(c.Mux)
	defer srv.Close()

	for i, v := range []float64{20, 22, 24} {
		msg := model.StreamMessage{
			Type:      parser.TypeSensorReading,
			Value:     v,
			Timestamp: time.Date(2026, 8, 21, 10, 0, i, 0, time.UTC).Format(time.RFC3339),
		}
		require.NoError(t, c.storeMessage(msg))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, c.storeMessage(model.StreamMessage{
		Type:     parser.TypeVoiceCommand,
		Commands: []string{"start_batch"},
	}))

	resp := authedGet(t, srv, "/api/latest")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var latest model.StreamMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&latest))
	resp.Body.Close()
	assert.Equal(t, 24.0, latest.Value)

	resp = authedGet(t, srv, "/api/history?limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []model.StreamMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	resp.Body.Close()
	require.Len(t, history, 2)
	assert.Equal(t, 24.0, history[0].Value, "newest first")
	assert.Equal(t, 22.0, history[1].Value)

	resp = authedGet(t, srv, "/api/history?bucket=commands")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	resp.Body.Close()
	require.Len(t, history, 1)
	assert.Equal(t, []string{"start_batch"}, history[0].Commands)

	resp = authedGet(t, srv, "/api/history?bucket=secrets")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLatestEmptyArchive(t *testing.T) {
	c := newTestConsole(t)
	srv := httptest.NewServer(c.Mux)
	defer srv.Close()

	resp := authedGet(t, srv, "/api/latest")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAuthGuard(t *testing.T) {
	c := newTestConsole(t)
	srv := httptest.NewServer(c.Mux)
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = client.Get(srv.URL + "/api/latest")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode,
		"API routes answer 401 instead of redirecting")
}

func TestLoginFlow(t *testing.T) {
	c := newTestConsole(t)
	srv := httptest.NewServer(c.Mux)
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	form := url.Values{"username": {"admin"}, "password": {"1234"}}
	resp, err := client.PostForm(srv.URL+"/login", form)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	var session string
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_id" {
			session = ck.Value
		}
	}
	assert.NotEmpty(t, session)

	form = url.Values{"username": {"admin"}, "password": {"wrong"}}
	resp, err = client.PostForm(srv.URL+"/login", form)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login?err=1", resp.Header.Get("Location"))
}

func TestLoginConfiguredCredentials(t *testing.T) {
	c := newTestConsole(t)
	c.Cfg.Username = "brewer"
	c.Cfg.Password = "s3cret"
	srv := httptest.NewServer(c.Mux)
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	resp, err := client.PostForm(srv.URL+"/login",
		url.Values{"username": {"admin"}, "password": {"1234"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login?err=1", resp.Header.Get("Location"),
		"defaults stop working once credentials are configured")

	resp, err = client.PostForm(srv.URL+"/login",
		url.Values{"username": {"brewer"}, "password": {"s3cret"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestCommandForward(t *testing.T) {
	var forwarded string
	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		forwarded = string(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer hub.Close()

	c := newTestConsole(t)
	c.hubURL = hub.URL
	srv := httptest.NewServer(c.Mux)
	defer srv.Close()

	body := `{"transcript":"begin potion","commands":["start_batch"]}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/command", strings.NewReader(body))
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "test-session"})
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, body, forwarded)
}

func TestDashboardRenders(t *testing.T) {
	c := newTestConsole(t)
	srv := httptest.NewServer(c.Mux)
	defer srv.Close()

	resp := authedGet(t, srv, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "BrewSense Console")
}
