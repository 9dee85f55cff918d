package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emre/registrar/internal/app/models/dto"
	"github.com/emre/registrar/internal/pkg/logger"
	"github.com/emre/registrar/internal/pkg/throttle"
)

// Throttle rejects clients that exceed the configured request cap
// within the trailing window. Clients are keyed by network origin
// (gin's ClientIP, which honors trusted proxy headers). When the
// throttle store itself fails the request is admitted: a broken
// limiter must not take the API down with it.
func Throttle(store throttle.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		result, err := store.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Error().Err(err).Str("client", key).Msg("Throttle check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeRateLimited,
					"Too many requests, please try again later")))
			return
		}

		c.Next()
	}
}
