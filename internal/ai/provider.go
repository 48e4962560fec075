package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Reply is a completed assistant answer. UsageTokens is the provider's token
// count for the exchange when it reported one.
type Reply struct {
	Text        string
	UsageTokens *int
}

type Provider interface {
	Name() string
	Chat(ctx context.Context, req Request) (Reply, error)
}
