package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("AI_TIMEOUT_SECONDS", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("APP_TIMEZONE", "")

	cfg := Load()

	assert.Equal(t, "groq", cfg.AIProvider)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, 2, cfg.WorkerConcurrency)
	assert.Equal(t, "Asia/Tokyo", cfg.AppTimezone)
	assert.NotEmpty(t, cfg.TutorSystemPrompt)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Ollama")
	t.Setenv("AI_TIMEOUT_SECONDS", "5")
	t.Setenv("WORKER_CONCURRENCY", "500")
	t.Setenv("AI_TEMPERATURE", "0.7")
	t.Setenv("CHAT_RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()

	assert.Equal(t, "ollama", cfg.AIProvider)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
	assert.Equal(t, 50, cfg.WorkerConcurrency)
	assert.InDelta(t, 0.7, cfg.AITemperature, 1e-9)
	assert.Equal(t, 20, cfg.ChatRatePerMinute)
}

func TestLoad_Lists(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example.com, ,http://localhost:3000 ")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := Load()

	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.CookieSecure)
}
