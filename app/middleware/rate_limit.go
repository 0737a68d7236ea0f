package middleware

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	httpdto "github.com/vibast-solutions/ms-go-social-auth/app/dto/http"
	"github.com/vibast-solutions/ms-go-social-auth/app/ratelimit"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type limiter interface {
	Allow(ctx context.Context, identity string) (ratelimit.Decision, error)
}

// RateLimit throttles requests per client IP. Exceeding the window answers
// 429 with Retry-After; a limiter that cannot decide answers 503.
func RateLimit(l limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			decision, err := l.Allow(c.Request().Context(), ip)
			if err == nil {
				c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
				return next(c)
			}

			fields := logrus.Fields{"ip": ip, "path": c.Path()}
			if errors.Is(err, ratelimit.ErrRateLimited) {
				seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				logrus.WithFields(fields).Warn("Rate limit exceeded")
				return c.JSON(http.StatusTooManyRequests, httpdto.ErrorResponse{Error: "too many requests"})
			}

			logrus.WithError(err).WithFields(fields).Error("Rate limiter unavailable")
			return c.JSON(http.StatusServiceUnavailable, httpdto.ErrorResponse{Error: "service temporarily unavailable"})
		}
	}
}
