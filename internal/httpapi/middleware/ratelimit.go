package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/common"
)

type Limiter interface {
	Allow(ctx context.Context, studentID uint64) (bool, error)
}

// RateLimit rejects a student's request with 429 once the limiter says so.
// Limiter failures let the request through.
func RateLimit(l Limiter, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		id, ok := StudentIDFromContext(c)
		if !ok {
			c.Next()
			return
		}
		allowed, err := l.Allow(c.Request.Context(), id)
		if err != nil {
			log.WithError(err).WithField("student_id", id).Warn("rate limiter unavailable")
		}
		if !allowed {
			common.Fail(c, http.StatusTooManyRequests, 42901, "too many requests, please slow down")
			return
		}
		c.Next()
	}
}
