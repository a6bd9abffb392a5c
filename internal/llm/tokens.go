package llm

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts prompt tokens with a BPE encoding. A counter whose
// encoding could not be loaded falls back to EstimateTokens.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter loads the named encoding (e.g. "cl100k_base"). Loading may
// need network access on first use; failures yield an estimating counter.
func NewTokenCounter(encoding string) *TokenCounter {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// Count returns the number of tokens in text.
func (c *TokenCounter) Count(text string) int {
	if c == nil || c.enc == nil {
		return EstimateTokens(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Exact reports whether counts come from a real encoding.
func (c *TokenCounter) Exact() bool {
	return c != nil && c.enc != nil
}

// EstimateTokens provides a rough token count estimation for the given text.
// Uses the approximation of 1 token per 4 characters.
func EstimateTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		return 1
	}
	return n
}
