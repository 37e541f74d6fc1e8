package llm

import "context"

// Provider is a chat-capable model backend. All three supported
// backends (OpenAI, Albert, Ollama) speak the OpenAI chat protocol.
type Provider interface {
	// Chat sends one chat request. When the request carries tools the
	// response may hold tool calls instead of content.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Name identifies the backend, for logs.
	Name() string
}
