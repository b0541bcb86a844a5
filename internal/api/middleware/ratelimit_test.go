package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type countingLimiter struct {
	limit  int
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	if l.err != nil {
		return false, 0, l.err
	}
	l.counts[key]++
	return l.counts[key] <= l.limit, 90 * time.Second, nil
}

func hit(e *echo.Echo, mw echo.MiddlewareFunc, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	e := echo.New()
	lim := &countingLimiter{limit: 2, counts: map[string]int{}}
	mw := RateLimit(lim, "too many login attempts", zerolog.Nop())

	for i := 0; i < 2; i++ {
		if rec := hit(e, mw, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := hit(e, mw, "10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "90" {
		t.Fatalf("unexpected Retry-After: %q", rec.Header().Get("Retry-After"))
	}

	if rec := hit(e, mw, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("other IP should not be limited, got %d", rec.Code)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	e := echo.New()
	lim := &countingLimiter{err: errors.New("connection refused")}
	mw := RateLimit(lim, "too many login attempts", zerolog.Nop())

	if rec := hit(e, mw, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected request through on limiter error, got %d", rec.Code)
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	e := echo.New()
	mw := RateLimit(nil, "x", zerolog.Nop())

	if rec := hit(e, mw, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
