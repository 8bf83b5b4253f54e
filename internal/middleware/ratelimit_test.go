package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(noContent())
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
		req.RemoteAddr = "198.51.100.10:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "30" {
			t.Fatalf("Retry-After = %q, want 30", rec.Header().Get("Retry-After"))
		}
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	other := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
	other.RemoteAddr = "198.51.100.11:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("other client code = %d", rec.Code)
	}
}

func TestRateLimitIgnoresForwardedHeader(t *testing.T) {
	handler := RateLimit(1, time.Minute)(noContent())
	passed := 0
	for _, xff := range []string{"192.0.2.1", "192.0.2.2", "192.0.2.3", "192.0.2.4", "192.0.2.5"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			passed++
		}
	}
	if passed != 1 {
		t.Fatalf("passed = %d, want 1", passed)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(0, time.Minute)(noContent())
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d code = %d", i, rec.Code)
		}
	}
}

func TestLimiterStoreSweepsIdleClients(t *testing.T) {
	clock := time.Date(2010, 5, 30, 10, 0, 0, 0, time.UTC)
	store := newLimiterStore(1, time.Minute)
	store.now = func() time.Time { return clock }
	store.get("198.51.100.10")
	clock = clock.Add(limiterIdleTTL + time.Second)
	store.get("198.51.100.11")
	if _, ok := store.limiters["198.51.100.10"]; ok {
		t.Fatal("idle limiter was not swept")
	}
	if len(store.limiters) != 1 {
		t.Fatalf("limiters = %d, want 1", len(store.limiters))
	}
}

func TestRealIP(t *testing.T) {
	trusted := []string{"10.0.0.0/8", "203.0.113.9"}
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{name: "untrusted peer keeps socket address", remote: "198.51.100.10:1234", xff: "192.0.2.1", want: "198.51.100.10"},
		{name: "trusted proxy yields client", remote: "10.1.2.3:443", xff: "192.0.2.1", want: "192.0.2.1"},
		{name: "rightmost untrusted hop wins", remote: "10.1.2.3:443", xff: "192.0.2.66, 192.0.2.1, 10.9.9.9", want: "192.0.2.1"},
		{name: "single trusted ip", remote: "203.0.113.9:443", xff: "2001:db8::1", want: "2001:db8::1"},
		{name: "garbage header ignored", remote: "10.1.2.3:443", xff: "not-an-ip", want: "10.1.2.3"},
		{name: "missing header", remote: "10.1.2.3:443", want: "10.1.2.3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			handler := RealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			if got != tc.want {
				t.Fatalf("client = %q, want %q", got, tc.want)
			}
		})
	}
}
