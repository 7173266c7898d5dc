package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"printforge/internal/caching"
	"printforge/internal/common"

	"github.com/labstack/echo/v4"
)

// RateLimit throttles mutating billing routes per authenticated user
// (falling back to the remote address) using redis counters. Redis
// being unreachable fails open; billing correctness never depends on
// the limiter.
func RateLimit(cacheSvc caching.CacheService, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := c.RealIP()
			if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
				caller = userID.String()
			}
			key := fmt.Sprintf("printforge:ratelimit:%s:%s", c.Request().Method, caller)

			ctx := c.Request().Context()
			limited, err := cacheSvc.IsRateLimited(ctx, key, limit, window)
			if err != nil {
				log.Printf("Rate limit check failed for %s: %v", caller, err)
				return next(c)
			}
			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			}

			if err := cacheSvc.IncrementRateLimit(ctx, key, window); err != nil {
				log.Printf("Rate limit increment failed for %s: %v", caller, err)
			}

			return next(c)
		}
	}
}
