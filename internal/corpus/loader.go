package corpus

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/policy"
)

// ErrEmptyCorpus is returned when no policy page could be loaded.
var ErrEmptyCorpus = errors.New("corpus is empty: no policy page could be loaded")

// DefaultMinDocumentLength drops pages that are mostly navigation chrome.
const DefaultMinDocumentLength = 100

// Loader fetches every registry page in order.
type Loader struct {
	fetcher   Fetcher
	minLength int
}

// NewLoader creates a loader. Documents shorter than minLength runes are
// omitted.
func NewLoader(f Fetcher, minLength int) *Loader {
	return &Loader{fetcher: f, minLength: minLength}
}

// Load fetches each policy in registry order. Pages that fail to download or
// are too short are logged and reported in the skipped list; they never abort
// the load. Cancellation of ctx does.
func (l *Loader) Load(ctx context.Context, reg *policy.Registry) ([]Document, []Skipped, error) {
	log := logging.FromContext(ctx)

	var docs []Document
	var skipped []Skipped
	for _, p := range reg.Policies() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		text, err := l.fetcher.Fetch(ctx, p.URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			log.Warn("skipping policy page", "policy", p.Name, "url", p.URL, "error", err)
			skipped = append(skipped, Skipped{Source: p.URL, Name: p.Name, Reason: err.Error()})
			continue
		}

		if n := len([]rune(text)); n < l.minLength {
			reason := fmt.Sprintf("text too short (%d < %d characters)", n, l.minLength)
			log.Warn("skipping policy page", "policy", p.Name, "url", p.URL, "reason", reason)
			skipped = append(skipped, Skipped{Source: p.URL, Name: p.Name, Reason: reason})
			continue
		}

		log.Debug("loaded policy page", "policy", p.Name, "chars", len(text))
		docs = append(docs, Document{Source: p.URL, Name: p.Name, Text: text})
	}

	return docs, skipped, nil
}
