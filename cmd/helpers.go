package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ziadkadry99/policy-bot/internal/assistant"
	"github.com/ziadkadry99/policy-bot/internal/config"
	"github.com/ziadkadry99/policy-bot/internal/embeddings"
	"github.com/ziadkadry99/policy-bot/internal/ingest"
	"github.com/ziadkadry99/policy-bot/internal/llm"
	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/policy"
	"github.com/ziadkadry99/policy-bot/internal/progress"
	"github.com/ziadkadry99/policy-bot/internal/retrieval"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `policybot init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates the embeddings client for the configured
// provider.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	return embeddings.NewOpenAIEmbedder(embeddings.OpenAIConfig{
		BaseURL: cfg.Endpoint(),
		APIKey:  apiKey,
		Model:   cfg.EmbedModel(),
	}), nil
}

// createLLMProviderFromConfig creates the chat provider, rate limited when
// requests_per_minute is set.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	p, err := llm.NewProvider(string(cfg.Provider), cfg.Endpoint(), apiKey, cfg.ChatModel(), 0)
	if err != nil {
		return nil, err
	}
	return llm.NewRateLimitedProvider(p, cfg.RequestsPerMinute), nil
}

// buildSession runs ingestion and wires a ready-to-use assistant session.
func buildSession(ctx context.Context, cfg *config.Config, reporter progress.Reporter) (*assistant.Session, error) {
	ctx = logging.WithLogger(ctx, slog.Default())

	reg, err := policy.FromConfig(cfg.Policies)
	if err != nil {
		return nil, fmt.Errorf("policy registry: %w", err)
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	pipeline, err := ingest.NewPipeline(cfg, embedder, reporter)
	if err != nil {
		return nil, err
	}
	knowledge, err := pipeline.Run(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("building policy index: %w", err)
	}

	retriever, err := retrieval.New(pipeline.QueryEmbedder(), knowledge.Index, knowledge.Chunks)
	if err != nil {
		return nil, err
	}
	retriever.MaxK = cfg.TopK
	retriever.MinChunkLength = cfg.MinChunkLength

	session, err := assistant.NewSession(reg, retriever, provider, cfg.MatchStrategy)
	if err != nil {
		return nil, err
	}
	return session.WithTokenCounter(llm.NewTokenCounter("cl100k_base")), nil
}
