// Package chunker splits document text into bounded pieces for embedding.
// Every strategy covers the input exactly: concatenating the chunks gives back
// the original text.
package chunker

import (
	"fmt"

	"github.com/ziadkadry99/policy-bot/internal/config"
	"github.com/ziadkadry99/policy-bot/internal/corpus"
)

// Chunk is a piece of one document. Ordinal is its position within that
// document.
type Chunk struct {
	Source  string
	Name    string
	Ordinal int
	Text    string
}

// SplitFunc splits text into chunks of at most size characters.
type SplitFunc func(text string, size int) ([]string, error)

// ForStrategy returns the split function for a configured strategy.
func ForStrategy(s config.ChunkStrategy) (SplitFunc, error) {
	switch s {
	case config.ChunkFixed, "":
		return Fixed, nil
	case config.ChunkSentence:
		return Sentence, nil
	default:
		return nil, fmt.Errorf("unknown chunk strategy %q", s)
	}
}

// Fixed cuts text into consecutive slices of size characters; the last one
// may be shorter.
func Fixed(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}

// Sentence packs whole sentences into chunks of at most size characters. A
// sentence runs up to and including a '.', '!' or '?' and the whitespace that
// follows it. Sentences longer than size are cut like Fixed.
func Sentence(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}

	var chunks []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, string(current))
			current = nil
		}
	}

	for _, s := range splitSentences([]rune(text)) {
		if len(s) > size {
			flush()
			for start := 0; start < len(s); start += size {
				end := min(start+size, len(s))
				chunks = append(chunks, string(s[start:end]))
			}
			continue
		}
		if len(current)+len(s) > size {
			flush()
		}
		current = append(current, s...)
	}
	flush()
	return chunks, nil
}

func splitSentences(runes []rune) [][]rune {
	var out [][]rune
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && isSpace(runes[end]) {
			end++
		}
		out = append(out, runes[start:end])
		start = end
		i = end - 1
	}
	if start < len(runes) {
		out = append(out, runes[start:])
	}
	return out
}

func isTerminator(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// ChunkDocuments splits every document and returns the chunks in document
// order, then chunk order.
func ChunkDocuments(docs []corpus.Document, split SplitFunc, size int) ([]Chunk, error) {
	var out []Chunk
	for _, d := range docs {
		pieces, err := split(d.Text, size)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", d.Name, err)
		}
		for i, p := range pieces {
			out = append(out, Chunk{Source: d.Source, Name: d.Name, Ordinal: i, Text: p})
		}
	}
	return out, nil
}

// Texts returns the chunk texts, aligned with chunks.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}
