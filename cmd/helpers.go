package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/themislegal/themis/internal/agent"
	"github.com/themislegal/themis/internal/catalog"
	"github.com/themislegal/themis/internal/config"
	"github.com/themislegal/themis/internal/dispatch"
	"github.com/themislegal/themis/internal/embeddings"
	"github.com/themislegal/themis/internal/legifrance"
	"github.com/themislegal/themis/internal/llm"
	"github.com/themislegal/themis/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `themis init` to create a config file", err)
	}
	return cfg, nil
}

// createLLMProviderFromConfig creates the chat provider, rate limited
// when requests_per_min is set.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMin > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMin)
	}
	return provider, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder matching the
// configured provider.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	model := cfg.EmbeddingModel

	switch cfg.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for embeddings")
		}
		if model == "" {
			model = string(embeddings.ModelTextEmbedding3Small)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model), cfg.EmbeddingBaseURL), nil
	case config.ProviderAlbert:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderAlbert))
		if apiKey == "" {
			return nil, fmt.Errorf("ALBERT_API_KEY environment variable is required for embeddings")
		}
		if model == "" {
			model = string(embeddings.ModelEmbeddingsGTE)
		}
		baseURL := cfg.EmbeddingBaseURL
		if baseURL == "" {
			baseURL = config.DefaultAlbertBaseURL
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model), baseURL), nil
	case config.ProviderOllama:
		if model == "" {
			model = "nomic-embed-text"
		}
		return embeddings.NewOllamaEmbedder(model, 768, cfg.EmbeddingBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// createLegifranceClient builds the PISTE client from config plus the
// LEGIFRANCE_CLIENT_ID / LEGIFRANCE_CLIENT_SECRET environment variables.
func createLegifranceClient(cfg *config.Config) (*legifrance.Client, error) {
	clientID := os.Getenv("LEGIFRANCE_CLIENT_ID")
	clientSecret := os.Getenv("LEGIFRANCE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("LEGIFRANCE_CLIENT_ID and LEGIFRANCE_CLIENT_SECRET environment variables are required")
	}
	return legifrance.New(legifrance.Config{
		BaseURL:      cfg.Legifrance.BaseURL,
		TokenURL:     cfg.Legifrance.TokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Timeout:      time.Duration(cfg.Legifrance.TimeoutSec) * time.Second,
		MaxRetries:   cfg.Legifrance.MaxRetries,
	})
}

// createDispatcher builds the catalog-backed dispatcher.
func createDispatcher(cfg *config.Config, reg *catalog.Registry) (*dispatch.Dispatcher, error) {
	client, err := createLegifranceClient(cfg)
	if err != nil {
		return nil, err
	}
	return dispatch.New(reg, client, time.Duration(cfg.ToolTimeoutSec)*time.Second), nil
}

// createSessionStore opens the session store under the data directory.
func createSessionStore(cfg *config.Config) (*session.Store, error) {
	return session.NewStore(filepath.Join(cfg.DataDir, "sessions"))
}

// createAgent assembles the full research agent.
func createAgent(cfg *config.Config, reg *catalog.Registry, d *dispatch.Dispatcher,
	store *session.Store, mem agent.Memory, usageLog agent.UsageLog,
	onState func(agent.State)) (*agent.Agent, error) {
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}
	namingModel := cfg.NamingModel
	if namingModel == "" {
		namingModel = cfg.Model
	}
	return agent.New(agent.Options{
		Provider:      provider,
		Model:         cfg.Model,
		NamingModel:   namingModel,
		Catalog:       reg,
		Dispatcher:    d,
		Store:         store,
		Prompts:       prompts,
		MaxIterations: cfg.MaxIterations,
		UsageLog:      usageLog,
		Memory:        mem,
		OnState:       onState,
	})
}
