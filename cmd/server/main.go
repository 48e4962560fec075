package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/withstudy/tutor/internal/config"
	"github.com/withstudy/tutor/internal/db"
	"github.com/withstudy/tutor/internal/httpapi"
	"github.com/withstudy/tutor/internal/logging"
	"github.com/withstudy/tutor/internal/store/rabbitmq"
	"github.com/withstudy/tutor/internal/store/redisstore"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	gdb, err := db.Open(cfg.DBDSN, log)
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	defer db.Close(gdb)
	if err := db.Migrate(gdb, httpapi.Tables()...); err != nil {
		log.WithError(err).Fatal("migrate")
	}

	opts := httpapi.Options{}

	if cfg.RedisAddr != "" {
		rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rds.Close()
		pctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rds.Ping(pctx); err != nil {
			log.WithError(err).Warn("redis unreachable, rate limiting fails open")
		}
		cancel()
		opts.Limiter = rds.ChatLimiter(cfg.ChatRatePerMinute)
	}

	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, usage events disabled")
		} else {
			defer pub.Close()
			opts.Events = pub
		}
	}

	r, err := httpapi.NewRouter(gdb, cfg, log, opts)
	if err != nil {
		log.WithError(err).Fatal("router")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.AITimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
