package llm

import (
	"fmt"
	"time"
)

// NewProvider creates a chat provider for one of the supported hosts.
// Supported provider types: "mistral", "openai", "ollama".
func NewProvider(providerType, baseURL, apiKey, model string, timeout time.Duration) (Provider, error) {
	switch providerType {
	case "mistral", "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("%s requires an API key", providerType)
		}
	case "ollama":
		// Ollama ignores the key but go-openai still sends the header.
		if apiKey == "" {
			apiKey = "ollama"
		}
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}

	return NewOpenAIProvider(OpenAIConfig{
		Name:    providerType,
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Timeout: timeout,
	}), nil
}
