package config

import (
	"fmt"
	"time"
)

// ProviderType identifies an OpenAI-compatible model host.
type ProviderType string

const (
	ProviderMistral ProviderType = "mistral"
	ProviderOpenAI  ProviderType = "openai"
	ProviderOllama  ProviderType = "ollama"
)

// ChunkStrategy selects how policy text is split before embedding.
type ChunkStrategy string

const (
	ChunkFixed    ChunkStrategy = "fixed"
	ChunkSentence ChunkStrategy = "sentence"
)

// MatchStrategy selects how a query is mapped to the policy it cites.
type MatchStrategy string

const (
	MatchKeyword    MatchStrategy = "keyword"
	MatchClassifier MatchStrategy = "classifier"
)

// PolicyEntry is one row of the policy registry.
type PolicyEntry struct {
	Name string `yaml:"name" koanf:"name"`
	URL  string `yaml:"url" koanf:"url"`
}

// Config is the top-level policybot configuration, corresponding to .policybot.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	BaseURL        string       `yaml:"base_url,omitempty" koanf:"base_url"`
	Model          string       `yaml:"model" koanf:"model"`
	EmbeddingModel string       `yaml:"embedding_model" koanf:"embedding_model"`

	ChunkSize         int           `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkStrategy     ChunkStrategy `yaml:"chunk_strategy" koanf:"chunk_strategy"`
	MinDocumentLength int           `yaml:"min_document_length" koanf:"min_document_length"`
	FetchTimeout      Duration      `yaml:"fetch_timeout" koanf:"fetch_timeout"`

	BatchSize      int      `yaml:"batch_size" koanf:"batch_size"`
	MaxRetries     int      `yaml:"max_retries" koanf:"max_retries"`
	RetryDelay     Duration `yaml:"retry_delay" koanf:"retry_delay"`
	RateLimitDelay Duration `yaml:"rate_limit_delay" koanf:"rate_limit_delay"`
	BatchDelay     Duration `yaml:"batch_delay" koanf:"batch_delay"`

	TopK              int           `yaml:"top_k" koanf:"top_k"`
	MinChunkLength    int           `yaml:"min_chunk_length" koanf:"min_chunk_length"`
	MatchStrategy     MatchStrategy `yaml:"match_strategy" koanf:"match_strategy"`
	RequestsPerMinute int           `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	ListenAddr string        `yaml:"listen_addr" koanf:"listen_addr"`
	Policies   []PolicyEntry `yaml:"policies" koanf:"policies"`
}

// Duration is a time.Duration that reads and writes as "10s" in YAML and
// environment overrides.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(v)
	return nil
}
