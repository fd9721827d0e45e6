package observability

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// Check is a named readiness probe. Checks must be cheap; they run on every
// readiness request.
type Check func() bool

// Health tracks liveness and readiness. The process is live once started;
// it becomes ready after startup completes and every registered check passes.
type Health struct {
	ready  atomic.Bool
	checks map[string]Check
}

// NewHealth creates a Health tracker in the not-ready state.
func NewHealth() *Health {
	return &Health{checks: map[string]Check{}}
}

// AddCheck registers a named readiness check. Not safe to call after the
// server starts serving.
func (h *Health) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// SetReady marks the service ready to serve traffic.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveHandler always reports ok while the process runs.
func (h *Health) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok", nil)
	}
}

// ReadyHandler reports ok only after startup completes and every check
// passes. Failed check names are included in the response.
func (h *Health) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "starting", nil)
			return
		}
		var failed []string
		for name, check := range h.checks {
			if !check() {
				failed = append(failed, name)
			}
		}
		if len(failed) > 0 {
			writeStatus(w, http.StatusServiceUnavailable, "degraded", failed)
			return
		}
		writeStatus(w, http.StatusOK, "ok", nil)
	}
}

func writeStatus(w http.ResponseWriter, code int, status string, failed []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]any{"status": status}
	if len(failed) > 0 {
		body["failed"] = failed
	}
	json.NewEncoder(w).Encode(body)
}
