package llm

import "sync"

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// priceTable maps model identifiers to their pricing. Albert models are
// state-hosted and free of charge for public agents.
var priceTable = map[string]modelPricing{
	"gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4":       {InputPerMillion: 30.00, OutputPerMillion: 60.00},

	"albert-large": {},
	"albert-small": {},
}

// EstimateCost returns the estimated cost in USD for the given model and
// token counts. Returns 0 if the model is not found in the price table.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := priceTable[model]
	if !ok {
		return 0
	}

	inputCost := float64(inputTokens) / 1_000_000.0 * pricing.InputPerMillion
	outputCost := float64(outputTokens) / 1_000_000.0 * pricing.OutputPerMillion
	return inputCost + outputCost
}

// EstimateTokens provides a rough token count estimation for the given text.
// Uses the approximation of 1 token per 4 characters.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}

// UsageTracker accumulates token usage and cost across calls.
type UsageTracker struct {
	mu           sync.Mutex
	inputTokens  int
	outputTokens int
	costUSD      float64
	calls        int
}

// Record adds the usage of one completed call.
func (u *UsageTracker) Record(model string, inputTokens, outputTokens int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inputTokens += inputTokens
	u.outputTokens += outputTokens
	u.costUSD += EstimateCost(model, inputTokens, outputTokens)
	u.calls++
}

// Totals returns the accumulated usage.
func (u *UsageTracker) Totals() (inputTokens, outputTokens, calls int, costUSD float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inputTokens, u.outputTokens, u.calls, u.costUSD
}
