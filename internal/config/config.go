package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = ".policybot.yml"

// EnvPrefix prefixes every environment override (POLICYBOT_CHUNK_SIZE, ...).
const EnvPrefix = "POLICYBOT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (POLICYBOT_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// A registry in the file replaces the built-in one wholesale.
	if k.Exists("policies") {
		cfg.Policies = nil
		if err := k.Unmarshal("policies", &cfg.Policies); err != nil {
			return nil, fmt.Errorf("unmarshalling policies: %w", err)
		}
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderMistral: true,
	ProviderOpenAI:  true,
	ProviderOllama:  true,
}

var validChunkStrategies = map[ChunkStrategy]bool{
	ChunkFixed:    true,
	ChunkSentence: true,
}

var validMatchStrategies = map[MatchStrategy]bool{
	MatchKeyword:    true,
	MatchClassifier: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of mistral, openai, ollama", c.Provider)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive")
	}
	if !validChunkStrategies[c.ChunkStrategy] {
		return fmt.Errorf("invalid chunk_strategy %q: must be fixed or sentence", c.ChunkStrategy)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive")
	}
	if c.RetryDelay < 0 || c.RateLimitDelay < 0 || c.BatchDelay < 0 || c.FetchTimeout < 0 {
		return fmt.Errorf("delays and timeouts must be non-negative")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if c.MinChunkLength < 0 || c.MinDocumentLength < 0 {
		return fmt.Errorf("minimum lengths must be non-negative")
	}
	if !validMatchStrategies[c.MatchStrategy] {
		return fmt.Errorf("invalid match_strategy %q: must be keyword or classifier", c.MatchStrategy)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}

	if len(c.Policies) == 0 {
		return fmt.Errorf("at least one policy is required")
	}
	seen := make(map[string]bool, len(c.Policies))
	for i, p := range c.Policies {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.URL) == "" {
			return fmt.Errorf("policies[%d]: name and url are required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("policies[%d]: duplicate policy name %q", i, p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderMistral:
		return "MISTRAL_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// APIKey resolves the secret for the configured provider. Providers without
// a key variable return an empty key and no error.
func (c *Config) APIKey() (string, error) {
	name := APIKeyEnvVar(c.Provider)
	if name == "" {
		return "", nil
	}
	key := os.Getenv(name)
	if key == "" {
		return "", fmt.Errorf("%s environment variable is required for provider %s", name, c.Provider)
	}
	return key, nil
}
