package config

import (
	"fmt"

	"github.com/manifoldco/promptui"
)

// RunWizard asks for the provider and citation strategy, then saves the
// resulting Config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to policybot! Let's configure the assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	providerPrompt := promptui.Select{
		Label: "Select model provider",
		Items: []string{"mistral", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	preset := GetPreset(cfg.Provider)
	cfg.Model = preset.Model
	cfg.EmbeddingModel = preset.EmbeddingModel

	strategyPrompt := promptui.Select{
		Label: "How should answers pick the policy they cite",
		Items: []string{
			"keyword: match query words against policy names",
			"classifier: ask the model for the three most relevant policies",
		},
	}
	idx, _, err := strategyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("strategy selection: %w", err)
	}
	cfg.MatchStrategy = []MatchStrategy{MatchKeyword, MatchClassifier}[idx]

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nConfig written to %s\n", path)
	if name := APIKeyEnvVar(cfg.Provider); name != "" {
		fmt.Printf("Remember to export %s (or put it in .env).\n", name)
	}
	return cfg, nil
}
