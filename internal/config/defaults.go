package config

// Albert is the French state OpenAI-compatible inference platform; the
// Légifrance endpoints are the DILA PISTE production URLs (there is no
// sandbox environment).
const (
	DefaultAlbertBaseURL = "https://albert.api.etalab.gouv.fr/v1"

	DefaultLegifranceBaseURL  = "https://api.piste.gouv.fr/dila/legifrance/lf-engine-app"
	DefaultLegifranceTokenURL = "https://oauth.piste.gouv.fr/api/oauth/token"
)

// defaultModels maps each provider to its default chat model.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI: "gpt-4o",
	ProviderAlbert: "albert-large",
	ProviderOllama: "llama3",
}

// DefaultModel returns the default chat model for the given provider.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderOpenAI]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderAlbert,
		Model:          "albert-large",
		BaseURL:        DefaultAlbertBaseURL,
		EmbeddingModel: "embeddings-gte",
		DataDir:        "data",
		PromptsFile:    "prompts.yml",
		MaxIterations:  15,
		ToolTimeoutSec: 30,
		RequestsPerMin: 60,

		AuditRetentionDays: 90,
		Legifrance: LegifranceConfig{
			BaseURL:    DefaultLegifranceBaseURL,
			TokenURL:   DefaultLegifranceTokenURL,
			TimeoutSec: 30,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Port: 8420,
		},
	}
}
