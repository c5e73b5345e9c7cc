package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/metrics"
	"github.com/ErlanBelekov/wisdom-hub/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

const errTooManyRequests = "Too many requests, please try again later"

// RateLimit caps requests per client IP within scope. Every route using the
// same scope shares one budget. If the limiter store fails the request is
// let through and the failure logged.
func RateLimit(limiter ratelimit.Limiter, scope string, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "rate_limit", "scope", scope)

	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			logger.ErrorContext(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retry := d.RetryAfter(time.Now())
			c.Header("Retry-After", strconv.Itoa(int((retry+time.Second-1)/time.Second)))
			metrics.RateLimitedTotal.WithLabelValues(c.FullPath()).Inc()
			logger.WarnContext(c.Request.Context(), "rate limited", "ip", c.ClientIP(), "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": errTooManyRequests})
			return
		}
		c.Next()
	}
}
