package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/ai"
	"github.com/withstudy/tutor/internal/auth"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/config"
	"github.com/withstudy/tutor/internal/httpapi/handlers"
	"github.com/withstudy/tutor/internal/httpapi/middleware"
	"github.com/withstudy/tutor/internal/telemetry"
	"github.com/withstudy/tutor/internal/timeutil"
	"github.com/withstudy/tutor/internal/usage"
	"gorm.io/gorm"
)

// Options carries the optional collaborators. Nil fields fall back to
// config-derived defaults or are disabled.
type Options struct {
	Providers *ai.Registry
	Events    usage.EventSink
	Limiter   middleware.Limiter
	Clock     timeutil.Clock
}

func NewRouter(db *gorm.DB, cfg config.Config, log *logrus.Logger, opts Options) (*gin.Engine, error) {
	if opts.Providers == nil {
		opts.Providers = ai.NewRegistryFromConfig(cfg)
	}
	h, err := handlers.NewHandler(db, cfg, log, opts.Providers, opts.Events, opts.Clock)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recovery(log))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/metrics", telemetry.Handler())
	r.GET("/subjects", h.ListSubjects)

	// auth
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(auth.NewResolver(cfg.JWTSecret), h.Students, log))
	authGroup.GET("/profile", h.GetProfile)
	authGroup.PUT("/profile", h.UpdateProfile)
	authGroup.GET("/context", h.GetContext)
	authGroup.PUT("/context", h.SaveContext)
	authGroup.POST("/context/regenerate", h.RegenerateContext)
	authGroup.GET("/dashboard", h.Dashboard)
	// Chat (JWT required)
	authGroup.POST("/chat", middleware.RateLimit(opts.Limiter, log), h.SubmitChatTurn)
	return r, nil
}
