package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderAlbert ProviderType = "albert"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level themis configuration, corresponding to .themis.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	Model          string       `yaml:"model" koanf:"model"`
	SynthesisModel string       `yaml:"synthesis_model" koanf:"synthesis_model"`
	NamingModel    string       `yaml:"naming_model" koanf:"naming_model"`
	BaseURL        string       `yaml:"base_url" koanf:"base_url"`

	EmbeddingModel   string `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingBaseURL string `yaml:"embedding_base_url" koanf:"embedding_base_url"`

	DataDir     string `yaml:"data_dir" koanf:"data_dir"`
	PromptsFile string `yaml:"prompts_file" koanf:"prompts_file"`

	MaxIterations  int `yaml:"max_iterations" koanf:"max_iterations"`
	ToolTimeoutSec int `yaml:"tool_timeout_sec" koanf:"tool_timeout_sec"`
	RequestsPerMin int `yaml:"requests_per_min" koanf:"requests_per_min"`

	// AuditRetentionDays bounds the dispatch/usage audit log; entries
	// older than this are removed at server startup. Zero keeps
	// everything.
	AuditRetentionDays int `yaml:"audit_retention_days" koanf:"audit_retention_days"`

	Legifrance LegifranceConfig `yaml:"legifrance" koanf:"legifrance"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
}

// LegifranceConfig holds settings for the PISTE Légifrance API.
type LegifranceConfig struct {
	BaseURL    string `yaml:"base_url" koanf:"base_url"`
	TokenURL   string `yaml:"token_url" koanf:"token_url"`
	TimeoutSec int    `yaml:"timeout_sec" koanf:"timeout_sec"`
	MaxRetries int    `yaml:"max_retries" koanf:"max_retries"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
