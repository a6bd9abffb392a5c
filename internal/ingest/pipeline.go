// Package ingest builds the searchable policy knowledge at startup: fetch
// every registry page, chunk the text, embed the chunks and index the
// vectors. Nothing is indexed unless every chunk was embedded.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ziadkadry99/policy-bot/internal/chunker"
	"github.com/ziadkadry99/policy-bot/internal/config"
	"github.com/ziadkadry99/policy-bot/internal/corpus"
	"github.com/ziadkadry99/policy-bot/internal/embeddings"
	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/policy"
	"github.com/ziadkadry99/policy-bot/internal/progress"
	"github.com/ziadkadry99/policy-bot/internal/vectordb"
)

// DocumentLoader loads the corpus for a registry.
type DocumentLoader interface {
	Load(ctx context.Context, reg *policy.Registry) ([]corpus.Document, []corpus.Skipped, error)
}

// Knowledge is the indexed corpus. Chunks[i] produced the vector at index
// position i.
type Knowledge struct {
	Documents []corpus.Document
	Skipped   []corpus.Skipped
	Chunks    []chunker.Chunk
	Index     *vectordb.Index
}

// Pipeline runs ingestion once.
type Pipeline struct {
	Loader    DocumentLoader
	Embedder  embeddings.Embedder
	Batch     embeddings.BatchOptions
	Split     chunker.SplitFunc
	ChunkSize int
	Reporter  progress.Reporter
}

// NewPipeline wires a pipeline from configuration, fetching pages over HTTP.
func NewPipeline(cfg *config.Config, e embeddings.Embedder, reporter progress.Reporter) (*Pipeline, error) {
	split, err := chunker.ForStrategy(cfg.ChunkStrategy)
	if err != nil {
		return nil, err
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Pipeline{
		Loader:   corpus.NewLoader(corpus.NewHTTPFetcher(cfg.FetchTimeout.Std()), cfg.MinDocumentLength),
		Embedder: e,
		Batch: embeddings.BatchOptions{
			BatchSize:      cfg.BatchSize,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay.Std(),
			RateLimitDelay: cfg.RateLimitDelay.Std(),
			BatchDelay:     cfg.BatchDelay.Std(),
		},
		Split:     split,
		ChunkSize: cfg.ChunkSize,
		Reporter:  reporter,
	}, nil
}

// QueryEmbedder wraps the pipeline's embedder for question-time use: one
// text per request, the same retry and rate-limit backoff as ingestion, no
// spacing between requests.
func (p *Pipeline) QueryEmbedder() *embeddings.BatchEmbedder {
	opts := p.Batch
	opts.BatchSize = 1
	opts.BatchDelay = 0
	opts.Progress = nil
	return embeddings.NewBatchEmbedder(p.Embedder, opts)
}

// Run loads, chunks, embeds and indexes the registry's policies.
func (p *Pipeline) Run(ctx context.Context, reg *policy.Registry) (*Knowledge, error) {
	log := logging.FromContext(ctx)
	reporter := p.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}
	start := time.Now()

	docs, skipped, err := p.Loader.Load(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		return nil, corpus.ErrEmptyCorpus
	}
	log.Info("corpus loaded", "documents", len(docs), "skipped", len(skipped))

	split := p.Split
	if split == nil {
		split = chunker.Fixed
	}
	chunks, err := chunker.ChunkDocuments(docs, split, p.ChunkSize)
	if err != nil {
		return nil, err
	}
	log.Info("corpus chunked", "chunks", len(chunks), "chunk_size", p.ChunkSize)

	opts := p.Batch
	opts.Progress = func(done, total int) {
		reporter.Update(done, fmt.Sprintf("Embedded %d/%d chunks", done, total))
	}
	reporter.Start(len(chunks), "Embedding policy chunks")
	vectors, err := embeddings.NewBatchEmbedder(p.Embedder, opts).Embed(ctx, chunker.Texts(chunks))
	reporter.Finish()
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedded %d of %d chunks", len(vectors), len(chunks))
	}

	idx, err := vectordb.Build(ctx, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	log.Info("policy index ready",
		"vectors", idx.Len(), "dimensions", idx.Dim(), "elapsed", time.Since(start).Round(time.Millisecond))

	return &Knowledge{Documents: docs, Skipped: skipped, Chunks: chunks, Index: idx}, nil
}
