package ai

import (
	"context"
	"strings"
	"sync"

	"github.com/withstudy/tutor/internal/apperr"
)

type ProviderFactory func(ctx context.Context, model string) (Provider, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get builds the named provider. An unknown name is a configuration error.
func (r *Registry) Get(ctx context.Context, name string, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.Config("unknown ai provider: " + name)
	}
	return f(ctx, model)
}

// RequireKey is used by factories of hosted providers: a missing credential
// is reported before any request is made.
func RequireKey(provider, key string) error {
	if strings.TrimSpace(key) == "" {
		return apperr.Config(provider + " api key is not configured")
	}
	return nil
}
