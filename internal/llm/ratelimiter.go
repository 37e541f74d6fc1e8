package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider paces Chat calls so that at most rpm requests per
// minute reach the wrapped provider. Albert enforces per-key quotas and
// a single research turn can fire a dozen model calls back to back.
type RateLimitedProvider struct {
	provider Provider
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewRateLimitedProvider wraps provider so calls are spaced rpm per
// minute apart. rpm <= 0 returns the provider unchanged.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		interval: time.Minute / time.Duration(rpm),
	}
}

func (r *RateLimitedProvider) Name() string { return r.provider.Name() }

func (r *RateLimitedProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if wait := r.reserve(); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return r.provider.Chat(ctx, req)
}

// reserve claims the next send slot and returns how long to wait for it.
func (r *RateLimitedProvider) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if r.next.Before(now) {
		r.next = now
	}
	wait := r.next.Sub(now)
	r.next = r.next.Add(r.interval)
	return wait
}
