package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"go.etcd.io/bbolt"
)

const defaultHistoryLimit = 50

// handleLatest returns the most recent archived reading.
func (c *Console) handleLatest(w http.ResponseWriter, r *http.Request) {
	err := c.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketReadings))
		if b == nil {
			http.Error(w, "no readings archived", http.StatusNotFound)
			return nil
		}
		cur := b.Cursor()
		k, v := cur.Last()
		if v == nil {
			http.Error(w, "no data available", http.StatusNotFound)
			return nil
		}
		w.Header().Set("Content-Type", "application/json")
		if _, werr := w.Write(v); werr != nil {
			slog.Warn("[console] write latest reading", "error", werr)
		}
		slog.Debug("[console] latest reading", "archived_at", string(k))
		return nil
	})
	if err != nil {
		http.Error(w, "failed to read archive", http.StatusInternalServerError)
	}
}

// handleHistory returns archived entries newest first. The bucket query
// parameter selects readings (default) or commands; limit caps the count.
func (c *Console) handleHistory(w http.ResponseWriter, r *http.Request) {
	bucket := r.URL.Query().Get("bucket")
	switch bucket {
	case "":
		bucket = bucketReadings
	case bucketReadings, bucketCommands:
	default:
		http.Error(w, "unknown bucket", http.StatusBadRequest)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries := []json.RawMessage{}
	err := c.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		cur := b.Cursor()
		for k, v := cur.Last(); k != nil && len(entries) < limit; k, v = cur.Prev() {
			entries = append(entries, append(json.RawMessage(nil), v...))
		}
		return nil
	})
	if err != nil {
		http.Error(w, "failed to read archive", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		slog.Warn("[console] write history", "error", err)
	}
}

// handleCommand forwards a command event to the hub's ingest endpoint.
func (c *Console) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer func() {
		if cerr := r.Body.Close(); cerr != nil {
			slog.Warn("[console] close command body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read command", http.StatusBadRequest)
		return
	}

	resp, err := http.Post(c.hubURL+"/api/command", "application/json", bytes.NewReader(body))
	if err != nil {
		http.Error(w, "failed to forward command", http.StatusBadGateway)
		return
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("[console] close hub response", "error", cerr)
		}
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		slog.Warn("[console] drain hub response", "error", err)
	}

	if resp.StatusCode >= 400 {
		http.Error(w, "hub rejected command", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
