package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .themis.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to themis! Let's configure your legal assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"albert", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.Model = DefaultModel(cfg.Provider)

	switch cfg.Provider {
	case ProviderAlbert:
		cfg.BaseURL = DefaultAlbertBaseURL
	default:
		cfg.BaseURL = ""
	}

	// 2. Model override.
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: cfg.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory (sessions, audit log, memory)",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Tool iteration cap.
	iterPrompt := promptui.Prompt{
		Label:   "Maximum tool iterations per question",
		Default: strconv.Itoa(cfg.MaxIterations),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return fmt.Errorf("enter a positive integer")
			}
			return nil
		},
	}
	iterStr, err := iterPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max iterations: %w", err)
	}
	cfg.MaxIterations, _ = strconv.Atoi(iterStr)

	if err := cfg.Save(".themis.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nConfiguration saved to .themis.yml")

	// Remind about credentials the wizard does not collect.
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("Note: set %s before running themis.\n", envVar)
		}
	}
	for _, envVar := range []string{"LEGIFRANCE_CLIENT_ID", "LEGIFRANCE_CLIENT_SECRET"} {
		if os.Getenv(envVar) == "" {
			fmt.Printf("Note: set %s for Légifrance access.\n", envVar)
		}
	}

	return cfg, nil
}
