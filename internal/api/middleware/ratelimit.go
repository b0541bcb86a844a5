package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Limiter counts an attempt for key and reports whether it is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimit throttles requests per client IP. Limiter errors are logged and
// the request is let through. A nil limiter disables throttling.
func RateLimit(limiter Limiter, message string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if limiter == nil {
			return next
		}
		return func(c echo.Context) error {
			ip := c.RealIP()
			ok, retryAfter, err := limiter.Allow(c.Request().Context(), ip)
			if err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !ok {
				secs := int(math.Ceil(retryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return echo.NewHTTPError(http.StatusTooManyRequests, message)
			}
			return next(c)
		}
	}
}
