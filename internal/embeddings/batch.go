package embeddings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/ziadkadry99/policy-bot/internal/logging"
)

// BatchOptions controls how BatchEmbedder paces and retries requests.
type BatchOptions struct {
	BatchSize      int
	MaxRetries     int           // attempts per batch, including the first
	RetryDelay     time.Duration // wait after an ordinary failure
	RateLimitDelay time.Duration // wait after ErrRateLimited
	BatchDelay     time.Duration // minimum spacing between batch requests

	// Progress, when set, is called after each batch with the number of
	// texts embedded so far.
	Progress func(done, total int)
}

// BatchEmbedder splits large inputs into batches and retries each batch with
// backoff. Batches are sent one at a time.
type BatchEmbedder struct {
	inner Embedder
	opts  BatchOptions
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBatchEmbedder wraps inner. Zero or negative sizes fall back to one text
// per batch and a single attempt.
func NewBatchEmbedder(inner Embedder, opts BatchOptions) *BatchEmbedder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	return &BatchEmbedder{inner: inner, opts: opts, sleep: sleepContext}
}

func (b *BatchEmbedder) Name() string {
	return b.inner.Name()
}

// Embed returns exactly one vector per text, in order, or an error wrapping
// ErrEmbeddingFailed when a batch exhausts its retries. No partial result is
// returned.
func (b *BatchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	log := logging.FromContext(ctx)

	var limiter *rate.Limiter
	if b.opts.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(b.opts.BatchDelay), 1)
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.opts.BatchSize {
		end := min(start+b.opts.BatchSize, len(texts))
		batch := texts[start:end]

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		vecs, err := b.embedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, vecs...)

		log.Debug("embedded batch", "from", start, "to", end, "total", len(texts))
		if b.opts.Progress != nil {
			b.opts.Progress(end, len(texts))
		}
	}
	return out, nil
}

func (b *BatchEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	log := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= b.opts.MaxRetries; attempt++ {
		vecs, err := b.inner.Embed(ctx, batch)
		if err == nil && len(vecs) != len(batch) {
			err = fmt.Errorf("got %d vectors for %d texts", len(vecs), len(batch))
		}
		if err == nil {
			return vecs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if attempt == b.opts.MaxRetries {
			break
		}

		delay := b.opts.RetryDelay
		if errors.Is(err, ErrRateLimited) {
			delay = b.opts.RateLimitDelay
		}
		log.Warn("embedding attempt failed, retrying",
			"attempt", attempt, "max_attempts", b.opts.MaxRetries, "delay", delay, "error", err)
		if err := b.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrEmbeddingFailed, b.opts.MaxRetries, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
