package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-social-auth/app/middleware"
	"github.com/vibast-solutions/ms-go-social-auth/app/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func newRateLimitedEcho(t *testing.T, limit int, window time.Duration) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.NewFixedWindowLimiter(client, ratelimit.Config{
		Prefix: "rl:password-recovery:",
		Limit:  limit,
		Window: window,
	})

	e := echo.New()
	e.POST("/auth/password-recovery", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, middleware.RateLimit(limiter))
	return e, mr
}

func postRecovery(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/password-recovery", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_SixthRequestGets429(t *testing.T) {
	e, _ := newRateLimitedEcho(t, 5, 10*time.Second)

	for i := 1; i <= 5; i++ {
		rec := postRecovery(e, "10.0.0.1")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(5-i) {
			t.Fatalf("request %d: unexpected remaining header %q", i, got)
		}
	}

	rec := postRecovery(e, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 || retryAfter > 10 {
		t.Fatalf("unexpected Retry-After header %q", rec.Header().Get("Retry-After"))
	}

	if rec = postRecovery(e, "10.0.0.2"); rec.Code != http.StatusNoContent {
		t.Fatalf("other clients must not be throttled, got %d", rec.Code)
	}
}

func TestRateLimit_WindowExpiry(t *testing.T) {
	e, mr := newRateLimitedEcho(t, 1, 10*time.Second)

	if rec := postRecovery(e, "10.0.0.1"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := postRecovery(e, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	mr.FastForward(10 * time.Second)

	if rec := postRecovery(e, "10.0.0.1"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 after the window, got %d", rec.Code)
	}
}

func TestRateLimit_UnavailableLimiter(t *testing.T) {
	e, mr := newRateLimitedEcho(t, 5, 10*time.Second)
	mr.Close()

	if rec := postRecovery(e, "10.0.0.1"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
