package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/ai"
	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/chat"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/config"
	"github.com/withstudy/tutor/internal/contextdoc"
	"github.com/withstudy/tutor/internal/httpapi/middleware"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/students"
	"github.com/withstudy/tutor/internal/timeutil"
	"github.com/withstudy/tutor/internal/usage"
	"gorm.io/gorm"
)

type Handler struct {
	Cfg      config.Config
	Log      *logrus.Logger
	Clock    timeutil.Clock
	Loc      *time.Location
	Students *students.Service
	Docs     *contextdoc.Manager
	Tracker  *chat.Tracker
	Usage    *usage.Aggregator
	ChatSvc  *chat.Coordinator
}

// NewHandler wires the services over db. events may be nil.
func NewHandler(db *gorm.DB, cfg config.Config, log *logrus.Logger, providers *ai.Registry, events usage.EventSink, clock timeutil.Clock) (*Handler, error) {
	loc, err := timeutil.LoadLocation(cfg.AppTimezone)
	if err != nil {
		return nil, fmt.Errorf("app timezone: %w", err)
	}
	if clock == nil {
		clock = timeutil.SystemClock{}
	}

	docs := contextdoc.NewManager(contextdoc.NewRepo(db), clock, log)
	tracker := chat.NewTracker(chat.NewRepo(db), loc, log)
	agg := usage.NewAggregator(usage.NewRepo(db), clock)
	coord := chat.NewCoordinator(chat.CoordinatorConfig{
		Provider:    cfg.AIProvider,
		BasePrompt:  cfg.TutorSystemPrompt,
		Timeout:     cfg.AITimeout,
		Temperature: cfg.AITemperature,
		MaxTokens:   cfg.AIMaxTokens,
	}, docs, tracker, agg, providers, clock, events, log)

	return &Handler{
		Cfg:      cfg,
		Log:      log,
		Clock:    clock,
		Loc:      loc,
		Students: students.NewService(students.NewRepo(db), log),
		Docs:     docs,
		Tracker:  tracker,
		Usage:    agg,
		ChatSvc:  coord,
	}, nil
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// fail renders err with its taxonomy status. Server-side failures are logged
// with their cause; clients only see the short message.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	code := errorCode(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		entry := h.Log.WithError(err).WithField("request_id", c.GetString(middleware.RequestIDKey))
		if id, ok := middleware.StudentIDFromContext(c); ok {
			entry = entry.WithField("student_id", id)
		}
		entry.Error(apperr.KindOf(err).String() + " failure")
	}
	common.Fail(c, status, code, apperr.Message(err))
}

func errorCode(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return 40001
	case apperr.KindAuth:
		return 40101
	case apperr.KindUpstream:
		return 50201
	case apperr.KindConfig:
		return 50002
	case apperr.KindPersistence:
		return 50001
	default:
		return 50000
	}
}

func (h *Handler) student(c *gin.Context) (*models.Student, bool) {
	st, ok := middleware.StudentFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return nil, false
	}
	return st, true
}
