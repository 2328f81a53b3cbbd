package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/config"
)

// fixed-window limiter script: increments the counter for the current
// window and sets its expiry on first use, in one atomic round trip.
var limiterScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return count
`)

// RateLimit returns an Echo middleware enforcing a fixed-window
// request limit per user and route, backed by Redis so the limit holds
// across instances.  When limiting is disabled or no Redis client is
// available the middleware is a pass-through: payment endpoints keep
// working, just unthrottled.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			window := time.Now().UnixMilli() / cfg.Window.Milliseconds()
			key := fmt.Sprintf("%s:%s:%s:%d", cfg.Prefix, limiterSubject(c), c.Path(), window)
			count, err := limiterScript.Run(c.Request().Context(), rdb,
				[]string{key}, cfg.Window.Milliseconds()).Int64()
			if err != nil {
				// Redis trouble must not block payments; let the request through.
				return next(c)
			}
			if count > int64(cfg.Capacity) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}

// limiterSubject identifies the caller for rate-limit keying: the
// authenticated user id when present, the client IP otherwise.
func limiterSubject(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		return fmt.Sprintf("u%v", v)
	}
	return "ip:" + c.RealIP()
}
