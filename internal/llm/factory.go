package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a new LLM provider based on the given provider type
// and model. Supported provider types: "openai", "albert", "ollama".
// baseURL overrides the provider's default endpoint when non-empty.
func NewProvider(providerType, model, baseURL string) (Provider, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model, baseURL), nil

	case "albert":
		apiKey := os.Getenv("ALBERT_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ALBERT_API_KEY environment variable is not set")
		}
		if baseURL == "" {
			baseURL = "https://albert.api.etalab.gouv.fr/v1"
		}
		return NewCompatibleProvider("albert", apiKey, model, baseURL), nil

	case "ollama":
		if baseURL == "" {
			host := os.Getenv("OLLAMA_HOST")
			if host == "" {
				host = "http://localhost:11434"
			}
			baseURL = host + "/v1"
		}
		// Ollama's OpenAI-compatible endpoint ignores the API key.
		return NewCompatibleProvider("ollama", "ollama", model, baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
