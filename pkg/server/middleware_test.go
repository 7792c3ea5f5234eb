package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/geoscout/pkg/tracing"
)

func TestTracingMiddleware(t *testing.T) {
	// Initialize tracing with no-op tracer
	os.Unsetenv("OTLP_ENDPOINT")
	ctx := context.Background()
	shutdown, _ := tracing.InitTracing(ctx, "test")
	defer shutdown(ctx)

	// Create a test handler
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify context has a span
		span := trace.SpanFromContext(r.Context())
		if span == nil {
			t.Error("No span in request context")
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	})

	// Wrap with tracing middleware
	handler := TracingMiddleware()(testHandler)

	// Test successful request
	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test/path?sessionId=123", nil)
		req.Header.Set("User-Agent", "test-agent")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", rec.Code)
		}
	})

	// Test error response
	t.Run("Error", func(t *testing.T) {
		errorHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("error"))
		})

		handler := TracingMiddleware()(errorHandler)

		req := httptest.NewRequest("POST", "/error", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", rec.Code)
		}
	})

	// Test session ID extraction
	t.Run("SessionID", func(t *testing.T) {
		// Test query parameter
		req := httptest.NewRequest("GET", "/test?sessionId=query-123", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		// Test header
		req = httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Session-ID", "header-456")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var logs []string
	var mu sync.Mutex
	logger := slog.New(&testLogHandler{logs: &logs, mutex: &mu})

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(logs) != 2 || logs[0] != "http request" || logs[1] != "http response" {
		t.Errorf("unexpected log messages: %v", logs)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'self'",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr",
			remoteAddr: "192.0.2.1:1234",
			want:       "192.0.2.1",
		},
		{
			name:       "x-forwarded-for takes first hop",
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			want:       "198.51.100.4",
		},
		{
			name:       "invalid forwarded value falls through",
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "192.0.2.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getIP(req); got != tt.want {
				t.Errorf("getIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestResponseWriterPreservesInterfaces verifies the logging wrapper keeps
// http.Flusher available, which SSE streaming depends on.
func TestResponseWriterPreservesInterfaces(t *testing.T) {
	var flusherAvailable bool
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flusherAvailable = w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := http.Handler(testHandler)
	handler = LoggingMiddleware(logger)(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !flusherAvailable {
		t.Fatal("http.Flusher interface not preserved through middleware")
	}
}
