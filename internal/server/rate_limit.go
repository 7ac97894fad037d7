package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportRateLimit throttles document rendering per client IP. Limiter
// errors let the request through.
func (s *Server) ExportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.exportLimit.Enabled() {
			c.Next()
			return
		}

		res, err := s.exportLimit.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			s.log.Warn("export rate limit unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			AbortWithError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
