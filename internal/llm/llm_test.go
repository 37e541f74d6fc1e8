package llm

import (
	"context"
	"sync"
	"testing"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []ChatRequest
	Response *ChatResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &ChatResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Tests ---

func TestMockProviderRecordsCalls(t *testing.T) {
	mock := NewMockProvider("test")
	ctx := context.Background()

	req := ChatRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}

	resp, err := mock.Chat(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}

	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}

	if mock.Calls[0].Model != "test-model" {
		t.Errorf("expected model 'test-model', got %q", mock.Calls[0].Model)
	}
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	// Ensure env vars are not set for this test.
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ALBERT_API_KEY", "")

	providers := []string{"openai", "albert"}
	for _, p := range providers {
		_, err := NewProvider(p, "some-model", "")
		if err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider("unknown", "some-model", "")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryCreatesOllamaWithoutAPIKey(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://localhost:11434")
	provider, err := NewProvider("ollama", "llama3", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "ollama" {
		t.Errorf("expected name 'ollama', got %q", provider.Name())
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	limited := NewRateLimitedProvider(mock, 60)

	resp, err := limited.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("unexpected response: %q", resp.Content)
	}
	if limited.Name() != "test" {
		t.Errorf("rate limiter should keep the wrapped name, got %q", limited.Name())
	}
}

func TestEstimateCost(t *testing.T) {
	cost := EstimateCost("gpt-4o", 1_000_000, 1_000_000)
	if cost != 12.50 {
		t.Errorf("expected 12.50, got %f", cost)
	}

	// Albert models are free.
	if c := EstimateCost("albert-large", 1_000_000, 1_000_000); c != 0 {
		t.Errorf("expected 0 for albert-large, got %f", c)
	}

	// Unknown model returns 0.
	if c := EstimateCost("unknown-model", 1000, 1000); c != 0 {
		t.Errorf("expected 0 for unknown model, got %f", c)
	}
}

func TestEstimateTokens(t *testing.T) {
	if n := EstimateTokens(""); n != 0 {
		t.Errorf("expected 0 for empty text, got %d", n)
	}
	if n := EstimateTokens("ab"); n != 1 {
		t.Errorf("expected at least 1 token for non-empty text, got %d", n)
	}
	if n := EstimateTokens("12345678"); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}
}

func TestUsageTracker(t *testing.T) {
	var u UsageTracker
	u.Record("gpt-4o", 100, 50)
	u.Record("gpt-4o", 200, 100)

	in, out, calls, _ := u.Totals()
	if in != 300 || out != 150 || calls != 2 {
		t.Errorf("unexpected totals: in=%d out=%d calls=%d", in, out, calls)
	}
}
