package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth("s3cret")(http.HandlerFunc(okHandler))

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"s3cret", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Bearer s3cret", http.StatusOK},
		{"bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/worldviews", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("header %q: expected %d, got %d", tt.header, tt.want, rec.Code)
		}
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	h := APIKeyAuth("")(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with auth disabled, got %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected echoed request id, got ctx=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if len(seen) != 36 {
		t.Fatalf("expected generated uuid for oversized id, got %q", seen)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if rl.Allow("a") {
		t.Fatal("expected third request to be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("expected separate key to have its own limiter")
	}

	now = now.Add(time.Hour)
	rl.Allow("b")
	rl.Cleanup(10 * time.Minute)
	if rl.Len() != 1 {
		t.Fatalf("expected idle key to be swept, got %d keys", rl.Len())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	h := RateLimit(1, 1, done)(http.HandlerFunc(okHandler))

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %v", codes)
	}
}

func TestMetricsAndLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	var m Metrics

	h := RequestID(m.Middleware(Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))))

	for _, path := range []string{"/", "/missing", "/boom"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	snap := m.Snapshot()
	if snap["request_count"] != 3 || snap["client_error_count"] != 1 || snap["server_error_count"] != 1 || snap["in_flight"] != 0 {
		t.Fatalf("unexpected metrics %v", snap)
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	if entries[1].Level != zap.WarnLevel || entries[2].Level != zap.ErrorLevel {
		t.Fatalf("expected warn then error levels, got %v %v", entries[1].Level, entries[2].Level)
	}
	if entries[0].ContextMap()["request_id"] == "" {
		t.Fatal("expected request_id in log entry")
	}
}
