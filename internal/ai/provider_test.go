package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/config"
)

func TestOpenRouterChat_ParsesReplyAndUsage(t *testing.T) {
	var got openRouterChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  x = 4  "}}],"usage":{"total_tokens":42,"completion_tokens":10}}`))
	}))
	defer srv.Close()

	p := NewGroqProvider(srv.URL, "k", "m")
	reply, err := p.Chat(context.Background(), Request{
		Messages:    []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "2x = 8"}},
		Temperature: 0.3,
		MaxTokens:   800,
	})
	require.NoError(t, err)
	assert.Equal(t, "x = 4", reply.Text)
	require.NotNil(t, reply.UsageTokens)
	assert.Equal(t, 42, *reply.UsageTokens)

	assert.Equal(t, "m", got.Model)
	assert.Equal(t, 800, got.MaxTokens)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, "groq", p.Name())
}

func TestOpenRouterChat_CompletionTokensFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}],"usage":{"completion_tokens":7}}`))
	}))
	defer srv.Close()

	reply, err := NewOpenRouterProvider(srv.URL, "k", "m", "", "").Chat(context.Background(), Request{})
	require.NoError(t, err)
	require.NotNil(t, reply.UsageTokens)
	assert.Equal(t, 7, *reply.UsageTokens)
}

func TestOpenRouterChat_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenRouterProvider(srv.URL, "k", "m", "", "").Chat(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestOpenRouterChat_RespectsContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewOpenRouterProvider(srv.URL, "k", "m", "", "").Chat(ctx, Request{})
	require.Error(t, err)
}

func TestOllamaChat_SumsEvalCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok"},"prompt_eval_count":30,"eval_count":12}`))
	}))
	defer srv.Close()

	reply, err := NewOllamaProvider(srv.URL, "llama3").Chat(context.Background(), Request{MaxTokens: 100})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Text)
	require.NotNil(t, reply.UsageTokens)
	assert.Equal(t, 42, *reply.UsageTokens)
}

func TestRegistry_MissingKeyIsConfigError(t *testing.T) {
	reg := NewRegistryFromConfig(config.Config{GroqModel: "m"})

	_, err := reg.Get(context.Background(), "groq", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfig, apperr.KindOf(err))

	_, err = reg.Get(context.Background(), "nope", "")
	assert.True(t, apperr.Is(err, apperr.KindConfig))

	p, err := reg.Get(context.Background(), "Ollama", "")
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
}
