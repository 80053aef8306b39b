package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Counter is a fixed-window counter keyed by string (Redis in production).
type Counter interface {
	// Incr increments key and returns the new count. The window expires
	// after ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimit throttles a route per client IP: at most limit requests per
// window. Counter failures fail open: losing the throttle is preferable
// to losing logins when Redis is down.
func RateLimit(counter Counter, limit int64, window time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ratelimit:" + c.Path() + ":" + c.RealIP()

			n, err := counter.Incr(c.Request().Context(), key, window)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("rate limit check failed, allowing request")
				return next(c)
			}
			if n > limit {
				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}

			return next(c)
		}
	}
}
