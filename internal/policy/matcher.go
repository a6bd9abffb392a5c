package policy

import (
	"strings"
	"unicode"
)

// KeywordMatcher picks the policy whose name shares the most keywords with a
// query.
type KeywordMatcher struct {
	registry *Registry
	keywords [][]string
}

// NewKeywordMatcher tokenizes every policy name once.
func NewKeywordMatcher(r *Registry) *KeywordMatcher {
	m := &KeywordMatcher{registry: r, keywords: make([][]string, r.Len())}
	for i, p := range r.policies {
		m.keywords[i] = uniqueTokens(p.Name)
	}
	return m
}

// Match returns the best-matching policy, or false when no policy name shares
// a keyword with the query. Ties go to the earlier registry entry.
func (m *KeywordMatcher) Match(query string) (Policy, bool) {
	queryTokens := make(map[string]bool)
	for _, tok := range Tokenize(query) {
		queryTokens[tok] = true
	}
	if len(queryTokens) == 0 {
		return Policy{}, false
	}

	best, bestScore := -1, 0
	for i, kws := range m.keywords {
		score := 0
		for _, kw := range kws {
			if queryTokens[kw] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Policy{}, false
	}
	return m.registry.policies[best], true
}

// Tokenize lowercases s and splits it on anything that is not a letter or
// digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueTokens(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokenize(s) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
