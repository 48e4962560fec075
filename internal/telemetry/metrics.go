package telemetry

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_ai_requests_total",
		Help: "Total number of AI completion requests",
	}, []string{"provider", "status"})

	aiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tutor_ai_request_duration_seconds",
		Help:    "Duration of AI completion requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "status"})

	chatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_chat_turns_total",
		Help: "Chat turns by subject and outcome",
	}, []string{"subject", "outcome"})

	sessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_chat_sessions_created_total",
		Help: "Daily chat sessions opened",
	}, []string{"subject"})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutor_usage_events_published_total",
		Help: "Usage events handed to the queue",
	}, []string{"status"})
)

func ObserveAIRequest(provider, status string, d time.Duration) {
	aiRequestDuration.WithLabelValues(provider, status).Observe(d.Seconds())
	aiRequestsTotal.WithLabelValues(provider, status).Inc()
}

func CountTurn(subject, outcome string) {
	chatTurns.WithLabelValues(subject, outcome).Inc()
}

func CountSessionCreated(subject string) {
	sessionsCreated.WithLabelValues(subject).Inc()
}

func CountEventPublished(status string) {
	eventsPublished.WithLabelValues(status).Inc()
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
