package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/catknow/internal/domain"
	"github.com/timmy/catknow/internal/logger"
	"github.com/timmy/catknow/internal/ratelimit"
)

// RateLimit rejects callers that exceeded their sliding window with a 429
// {error, code} envelope and a Retry-After header in seconds.
func RateLimit(limiter *ratelimit.SlidingWindow, identify ratelimit.IdentityFunc) gin.HandlerFunc {
	if identify == nil {
		identify = ratelimit.IdentityFromRequest(false)
	}

	return func(c *gin.Context) {
		identity := identify(c.Request)
		ctx := logger.SetIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)

		dec := limiter.Allow(identity)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))

		if !dec.Allowed {
			retry := int(math.Ceil(dec.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))

			logger.With(logger.Fields{
				logger.FieldIdentity: identity,
			}).Warn(ctx, "Rate limit exceeded: path=%s", c.Request.URL.Path)

			c.AbortWithStatusJSON(domain.ErrRateLimited.Status, domain.ErrRateLimited.Envelope())
			return
		}

		c.Next()
	}
}
