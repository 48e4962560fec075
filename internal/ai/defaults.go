package ai

import (
	"context"
	"strings"

	"github.com/withstudy/tutor/internal/config"
)

// NewRegistryFromConfig registers every provider the service can route to.
// Hosted providers fail with a config error at Get time when their key is
// missing, so a misconfigured deployment still starts.
func NewRegistryFromConfig(cfg config.Config) *Registry {
	reg := NewRegistry()

	reg.Register("ollama", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})

	reg.Register("openrouter", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		if err := RequireKey("openrouter", cfg.OpenRouterAPIKey); err != nil {
			return nil, err
		}
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		p := NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName)
		return p, nil
	})

	reg.Register("groq", func(ctx context.Context, model string) (Provider, error) {
		_ = ctx
		if err := RequireKey("groq", cfg.GroqAPIKey); err != nil {
			return nil, err
		}
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.GroqModel
		}
		return NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, m), nil
	})

	return reg
}
