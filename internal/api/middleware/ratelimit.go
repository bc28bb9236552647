package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"videosplit/internal/api/errors"
	"videosplit/internal/app/ratelimit"
)

// RateLimit enforces the per-account request budget for one operation class.
// Must run after APIKeyAuth so the account is on the context.
func RateLimit(limiter *ratelimit.Limiter, op ratelimit.OperationClass) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := AccountFrom(c)
		if account == nil {
			HandleError(c, errors.NewUnauthorizedError("Authentication required"))
			return
		}

		decision := limiter.Allow(c.Request.Context(), account, op)
		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
			HandleError(c, errors.NewRateLimitedError(
				"Rate limit exceeded, please retry later",
				map[string]string{
					"limit":       strconv.Itoa(decision.Limit),
					"window":      "60s",
					"retry_after": fmt.Sprintf("%ds", int(decision.RetryAfter.Seconds())),
				},
			))
			return
		}

		c.Next()
	}
}
