package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/auth"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/models"
)

const (
	StudentIDKey = "student_id"
	StudentKey   = "student"
)

type StudentLoader interface {
	GetByID(ctx context.Context, id uint64) (*models.Student, error)
}

// AuthRequired resolves the caller and loads the student row. Missing and
// malformed credentials both answer 401; malformed ones are logged.
func AuthRequired(resolver *auth.Resolver, students StudentLoader, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := resolver.Resolve(c.Request)
		switch res.Status {
		case auth.Authenticated:
		case auth.Malformed:
			log.WithFields(logrus.Fields{
				"request_id": c.GetString(RequestIDKey),
				"path":       c.FullPath(),
			}).WithError(res.Err).Warn("malformed credentials")
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			return
		default:
			common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
			return
		}

		st, err := students.GetByID(c.Request.Context(), res.StudentID)
		if err != nil {
			status := apperr.HTTPStatus(err)
			if status == http.StatusUnauthorized {
				common.Fail(c, status, 40101, "unauthorized")
				return
			}
			log.WithError(err).WithField("student_id", res.StudentID).Error("load student")
			common.Fail(c, status, 50001, apperr.Message(err))
			return
		}

		c.Set(StudentIDKey, st.ID)
		c.Set(StudentKey, st)
		c.Next()
	}
}

func StudentIDFromContext(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(StudentIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func StudentFromContext(c *gin.Context) (*models.Student, bool) {
	v, ok := c.Get(StudentKey)
	if !ok {
		return nil, false
	}
	st, ok := v.(*models.Student)
	return st, ok && st != nil
}
