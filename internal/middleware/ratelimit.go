package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rosettahomes/rosetta-backend/internal/apperrors"
)

type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows limit requests per client IP in each window. The
// limiter fails open when the counter is unreachable.
func RateLimit(counter Counter, name string, limit int, window time.Duration, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		n, err := counter.Incr(c.Request.Context(), name+":"+c.ClientIP(), window)
		if err != nil {
			if log != nil {
				log.Warn("rate limiter unavailable", "limiter", name, "error", err)
			}
			c.Next()
			return
		}

		remaining := int64(limit) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			apperrors.Respond(c, log, apperrors.RateLimited("Too many requests, please try again later"))
			return
		}
		c.Next()
	}
}
