package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DBDSN       string
	JWTSecret   string
	JWTTTL      time.Duration
	AppTimezone string

	CookieSecure       bool
	CORSAllowedOrigins []string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	ChatRatePerMinute int
	WorkerConcurrency int
	TutorSystemPrompt string

	// AI provider
	AIProvider        string
	AITimeout         time.Duration
	AITemperature     float64
	AIMaxTokens       int
	OllamaBaseURL     string
	OllamaModel       string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string
	GroqBaseURL       string
	GroqAPIKey        string
	GroqModel         string

	// rabbitMQ
	RabbitURL   string
	RabbitQueue string

	LogLevel  string
	LogFormat string
}

const defaultTutorPrompt = "You are a patient and encouraging homework tutor. Provide clear, step-by-step explanations. If unsure, say so and suggest how the student can verify."

// Load reads the process environment. A .env file in the working directory,
// when present, is applied first without overriding variables already set.
func Load() Config {
	_ = godotenv.Load()

	// DSN demo：
	// app:apppass@tcp(127.0.0.1:3306)/withstudy?charset=utf8mb4&parseTime=true&loc=Local
	// sqlite:./withstudy.db
	dsn := envOr("DB_DSN", "app:apppass@tcp(127.0.0.1:3306)/withstudy?charset=utf8mb4&parseTime=true&loc=UTC")

	return Config{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		DBDSN:       dsn,
		JWTSecret:   envOr("JWT_SECRET", "dev-secret-change-me"),
		JWTTTL:      time.Duration(envInt("JWT_TTL_HOURS", 24*7)) * time.Hour,
		AppTimezone: envOr("APP_TIMEZONE", "Asia/Tokyo"),

		CookieSecure:       envBool("COOKIE_SECURE", false),
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS"),

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envInt("REDIS_DB", 0),
		ChatRatePerMinute: envInt("CHAT_RATE_LIMIT_PER_MINUTE", 20),
		WorkerConcurrency: clamp(envInt("WORKER_CONCURRENCY", 2), 1, 50),
		TutorSystemPrompt: envOr("TUTOR_SYSTEM_PROMPT", defaultTutorPrompt),

		AIProvider:        strings.ToLower(envOr("AI_PROVIDER", "groq")),
		AITimeout:         time.Duration(envInt("AI_TIMEOUT_SECONDS", 60)) * time.Second,
		AITemperature:     envFloat("AI_TEMPERATURE", 0.3),
		AIMaxTokens:       envInt("AI_MAX_TOKENS", 800),
		OllamaBaseURL:     envOr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       envOr("OLLAMA_MODEL", "llama3:latest"),
		OpenRouterBaseURL: envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   envOr("OPENROUTER_MODEL", "openrouter/auto"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),
		GroqBaseURL:       envOr("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         envOr("GROQ_MODEL", "openai/gpt-oss-20b"),

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: envOr("RABBIT_QUEUE", "usage_events"),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// envList splits a comma separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
