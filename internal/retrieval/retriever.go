// Package retrieval finds the policy passages relevant to a query. The
// number of passages adapts to how close the best match is: a near-exact hit
// needs little supporting context, a weak one gets more.
package retrieval

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ziadkadry99/policy-bot/internal/chunker"
	"github.com/ziadkadry99/policy-bot/internal/embeddings"
	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/vectordb"
)

const (
	DefaultMaxK           = 6
	DefaultMinChunkLength = 30
)

// Passage is a retrieved chunk with its distance to the query.
type Passage struct {
	Chunk    chunker.Chunk
	Distance float32
}

// Result is the outcome of one retrieval. Chunks is empty when nothing
// substantial matched.
type Result struct {
	Chunks     []Passage
	Confidence float64
	EffectiveK int
}

// Retriever embeds queries and searches the chunk index.
type Retriever struct {
	embedder embeddings.Embedder
	index    *vectordb.Index
	chunks   []chunker.Chunk

	// MaxK is the number of neighbors searched and the upper bound on
	// passages returned.
	MaxK int
	// MinChunkLength drops retrieved chunks with fewer characters.
	MinChunkLength int
}

// New creates a Retriever. chunks must be aligned with the index: chunk i
// produced vector i.
func New(e embeddings.Embedder, idx *vectordb.Index, chunks []chunker.Chunk) (*Retriever, error) {
	if idx == nil {
		return nil, vectordb.ErrNotBuilt
	}
	if idx.Len() != len(chunks) {
		return nil, fmt.Errorf("index holds %d vectors but there are %d chunks", idx.Len(), len(chunks))
	}
	return &Retriever{
		embedder:       e,
		index:          idx,
		chunks:         chunks,
		MaxK:           DefaultMaxK,
		MinChunkLength: DefaultMinChunkLength,
	}, nil
}

// EffectiveK maps match confidence to how many passages to keep.
func EffectiveK(confidence float64, maxK int) int {
	k := 6
	switch {
	case confidence > 0.9:
		k = 2
	case confidence > 0.7:
		k = 4
	}
	return min(k, maxK)
}

// Retrieve embeds query, searches MaxK neighbors, keeps EffectiveK of them by
// the nearest neighbor's confidence and drops the ones that are too short.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*Result, error) {
	vec, err := embeddings.EmbedOne(ctx, r.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	neighbors, err := r.index.Search(ctx, vec, r.MaxK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(neighbors) == 0 {
		return &Result{}, nil
	}

	confidence := vectordb.Confidence(neighbors[0].Distance)
	k := EffectiveK(confidence, r.MaxK)
	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}

	res := &Result{Confidence: confidence, EffectiveK: k}
	for _, n := range neighbors {
		c := r.chunks[n.Position]
		if utf8.RuneCountInString(c.Text) < r.MinChunkLength {
			continue
		}
		res.Chunks = append(res.Chunks, Passage{Chunk: c, Distance: n.Distance})
	}

	logging.FromContext(ctx).Debug("retrieved passages",
		"confidence", confidence, "effective_k", k, "kept", len(res.Chunks))
	return res, nil
}

// Texts returns the passage texts in rank order.
func (res *Result) Texts() []string {
	out := make([]string, len(res.Chunks))
	for i, p := range res.Chunks {
		out[i] = p.Chunk.Text
	}
	return out
}
