// Package embeddings turns text into vectors through an OpenAI-compatible
// embeddings endpoint, with batching and retry for bulk ingestion.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited marks a failure caused by the service throttling us
	// (HTTP 429). Callers back off longer on it.
	ErrRateLimited = errors.New("embedding service rate limit exceeded")

	// ErrEmbeddingFailed is returned once a batch has used up its retries.
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed returns one vector per text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errors.New("embedder returned no vector")
	}
	return vecs[0], nil
}
