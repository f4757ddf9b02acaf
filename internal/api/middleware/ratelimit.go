package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"meme-factory/internal/domain"
	"meme-factory/internal/logger"
	"meme-factory/internal/ratelimit"
)

// RateLimit enforces the per-IP request quota before any other request work.
// Allowed requests carry X-RateLimit-Remaining and X-RateLimit-Reset headers;
// denied ones additionally get Retry-After with the seconds until the window
// resets.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := limiter.Check(c.ClientIP())

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", res.ResetAt.Format(time.RFC3339))

		if !res.Allowed {
			retryAfter := int64(res.RetryAfter().Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))

			logger.CtxWarn(c.Request.Context(), "rate limit exceeded: client_ip=%s", c.ClientIP())

			minutes := (retryAfter + 59) / 60
			derr := domain.NewError(domain.CodeRateLimitExceeded,
				fmt.Sprintf("You've reached the request limit. Try again in %d minutes.", minutes), true)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, derr.Envelope())
			return
		}

		c.Next()
	}
}
