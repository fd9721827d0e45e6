package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/slatehq/slate/internal/observability"
)

func TestRequestLogging_scopes_logger_to_request(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.LoggerFrom(r.Context(), zap.NewNop()).Info("handled")
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RequestID(RequestLogging(base)(handler))

	req := httptest.NewRequest(http.MethodGet, "/ui/layouts", nil)
	req.Header.Set("X-Correlation-Id", "cid-123")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	entries := logs.All()
	// The handler line plus the request completion line.
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(entries))
	}
	for _, entry := range entries {
		tagged := false
		for _, field := range entry.Context {
			if field.Key == "correlation_id" && field.String == "cid-123" {
				tagged = true
			}
		}
		if !tagged {
			t.Errorf("entry %q lacks the request correlation id", entry.Message)
		}
	}
}

func TestRequestLogging_without_context_logger_falls_back(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	fallback := zap.New(core)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.LoggerFrom(r.Context(), fallback).Info("bare")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if logs.Len() != 1 {
		t.Fatalf("log entries = %d, want the fallback logger used", logs.Len())
	}
}
