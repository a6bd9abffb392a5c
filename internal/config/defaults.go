package config

import "time"

// ProviderPreset describes the endpoint and models used when the config
// leaves them empty.
type ProviderPreset struct {
	BaseURL        string
	Model          string
	EmbeddingModel string
}

var providerPresets = map[ProviderType]ProviderPreset{
	ProviderMistral: {
		BaseURL:        "https://api.mistral.ai/v1",
		Model:          "mistral-large-latest",
		EmbeddingModel: "mistral-embed",
	},
	ProviderOpenAI: {
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
	},
	ProviderOllama: {
		BaseURL:        "http://localhost:11434/v1",
		Model:          "llama3",
		EmbeddingModel: "nomic-embed-text",
	},
}

// DefaultPolicies is the registry shipped with policybot, in citation order.
var DefaultPolicies = []PolicyEntry{
	{Name: "Student attendance policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/policies-and-procedures/student-attendance-policy"},
	{Name: "Registration policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/policies-and-procedures/registration-policy"},
	{Name: "Library space policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/policies-and-procedures/use-library-space-policy"},
	{Name: "Student conduct policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/policies-and-procedures/student-conduct-policy"},
	{Name: "Admissions Policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/policies-and-procedures/admissions-policy"},
	{Name: "Scholarship Policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/policies-and-procedures/scholarship-and-financial-assistance"},
	{Name: "Academic Schedule Policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/udst-policies-and-procedures/academic-schedule-policy"},
	{Name: "Sports and Wellness Policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/policies-and-procedures/sport-and-wellness-facilities-and"},
	{Name: "International Student Policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/udst-policies-and-procedures/international-student-policy"},
	{Name: "Student Counselling Services Policy", URL: "https://www.udst.edu.qa/about-udst/institutional-excellence-ie/udst-policies-and-procedures/student-counselling-services-policy"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	policies := make([]PolicyEntry, len(DefaultPolicies))
	copy(policies, DefaultPolicies)

	return &Config{
		Provider:          ProviderMistral,
		Model:             "mistral-large-latest",
		EmbeddingModel:    "mistral-embed",
		ChunkSize:         512,
		ChunkStrategy:     ChunkFixed,
		MinDocumentLength: 100,
		FetchTimeout:      Duration(10 * time.Second),
		BatchSize:         50,
		MaxRetries:        3,
		RetryDelay:        Duration(time.Second),
		RateLimitDelay:    Duration(10 * time.Second),
		BatchDelay:        Duration(2 * time.Second),
		TopK:              6,
		MinChunkLength:    30,
		MatchStrategy:     MatchKeyword,
		ListenAddr:        ":8080",
		Policies:          policies,
	}
}

// GetPreset returns the preset for the given provider.
// Returns the Mistral preset if the provider is unknown.
func GetPreset(provider ProviderType) ProviderPreset {
	if p, ok := providerPresets[provider]; ok {
		return p
	}
	return providerPresets[ProviderMistral]
}

// Endpoint returns the configured base URL or the provider default.
func (c *Config) Endpoint() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return GetPreset(c.Provider).BaseURL
}

// ChatModel returns the configured completion model or the provider default.
func (c *Config) ChatModel() string {
	if c.Model != "" {
		return c.Model
	}
	return GetPreset(c.Provider).Model
}

// EmbedModel returns the configured embedding model or the provider default.
func (c *Config) EmbedModel() string {
	if c.EmbeddingModel != "" {
		return c.EmbeddingModel
	}
	return GetPreset(c.Provider).EmbeddingModel
}
