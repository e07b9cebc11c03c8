package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/core/ports"
	"github.com/99minutos/identity-service/internal/metrics"
)

// RateLimit rejects requests over the limiter's budget with 429 and a
// Retry-After header. Requests are keyed by user id when Authenticate has
// already run, otherwise by client IP. Limiter failures let the request
// through.
func RateLimit(limiter ports.RateLimiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, keyType := rateKey(c)

			d, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				log.Warn().Err(err).Str("key_type", keyType).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				metrics.RateLimitRejectedTotal.WithLabelValues(keyType).Inc()
				secs := int(d.RetryAfter.Seconds() + 0.999)
				if secs < 1 {
					secs = 1
				}
				h.Set(echo.HeaderRetryAfter, strconv.Itoa(secs))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

func rateKey(c echo.Context) (string, string) {
	if claims, ok := ClaimsFrom(c); ok {
		return "user:" + claims.ID, "user"
	}
	return "ip:" + c.RealIP(), "ip"
}
