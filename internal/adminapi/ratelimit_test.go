package adminapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.4, 10.0.0.1")
	if got := GetClientIP(r); got != "203.0.113.4" {
		t.Fatalf("expected the first X-Forwarded-For hop, got %q", got)
	}
}

func TestGetClientIPFallsBackToRealIPThenRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "198.51.100.9")
	if got := GetClientIP(r); got != "198.51.100.9" {
		t.Fatalf("expected X-Real-IP fallback, got %q", got)
	}

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.RemoteAddr = "192.0.2.1:54321"
	if got := GetClientIP(r2); got != "192.0.2.1" {
		t.Fatalf("expected RemoteAddr host without port, got %q", got)
	}
}

func TestIPRateLimiterAllowsThenRejectsOverBurst(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatalf("expected the first two requests within burst to be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("expected the third immediate request to exceed burst and be rejected")
	}

	stats := rl.GetStats()
	if stats["allowed"] != 2 || stats["rejected"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestIPRateLimiterTracksIndependentIPs(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("1.1.1.1") {
		t.Fatalf("expected first IP's first request to be allowed")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatalf("expected a distinct IP to have its own independent budget")
	}
}

func TestWebSocketRateLimiterCapsPerIP(t *testing.T) {
	wrl := NewWebSocketRateLimiter(2)
	if !wrl.Allow("1.1.1.1") || !wrl.Allow("1.1.1.1") {
		t.Fatalf("expected the first two connections to be allowed")
	}
	if wrl.Allow("1.1.1.1") {
		t.Fatalf("expected the third concurrent connection to be rejected")
	}
	wrl.Release("1.1.1.1")
	if !wrl.Allow("1.1.1.1") {
		t.Fatalf("expected a released slot to free up capacity")
	}
}

func TestIsAllowedOriginLocalhostAndEmpty(t *testing.T) {
	if IsAllowedOrigin("") {
		t.Fatalf("expected empty origin to be rejected")
	}
	if !IsAllowedOrigin("http://localhost:5173") {
		t.Fatalf("expected any localhost port to be allowed")
	}
	if IsAllowedOrigin("http://evil.example.com") {
		t.Fatalf("expected an arbitrary external origin to be rejected")
	}
}
