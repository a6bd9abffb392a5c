// Package assistant turns a user question into a cited policy answer. A
// Session is built once at startup and is safe for concurrent use.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/policy-bot/internal/config"
	"github.com/ziadkadry99/policy-bot/internal/llm"
	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/policy"
	"github.com/ziadkadry99/policy-bot/internal/retrieval"
)

// User-facing fallback replies.
const (
	UnclearQueryMessage = "Your query is unclear. Please provide more specific details."
	NoPolicyMessage     = "No relevant policy found. Try rephrasing your question."
	ServiceErrorMessage = "The policy assistant is temporarily unavailable. Please try again later."
)

// MinQueryLength is the trimmed length below which a query is rejected
// without contacting any service.
const MinQueryLength = 3

// Outcome classifies how a question was handled.
type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeUnclear  Outcome = "unclear"
	OutcomeNoPolicy Outcome = "no_policy"
	OutcomeError    Outcome = "error"
)

// Retriever finds passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

// Answer is the reply to one question.
type Answer struct {
	Text       string
	Outcome    Outcome
	Policies   []policy.Policy // cited or classified policies, best first
	Primary    *policy.Policy  // policy linked in the citation, if any
	Confidence float64
	Passages   []retrieval.Passage
}

// Fallback reports whether Text is one of the fixed fallback replies.
func (a *Answer) Fallback() bool {
	return a.Outcome != OutcomeAnswered
}

// Session holds everything needed to answer questions.
type Session struct {
	registry   *policy.Registry
	retriever  Retriever
	provider   llm.Provider
	strategy   config.MatchStrategy
	matcher    *policy.KeywordMatcher
	classifier *policy.Classifier
	tokens     *llm.TokenCounter
}

// NewSession wires a session. strategy selects keyword matching or LLM
// classification for citations.
func NewSession(reg *policy.Registry, r Retriever, p llm.Provider, strategy config.MatchStrategy) (*Session, error) {
	if reg == nil || r == nil || p == nil {
		return nil, errors.New("registry, retriever and provider are required")
	}
	s := &Session{
		registry:  reg,
		retriever: r,
		provider:  p,
		strategy:  strategy,
		matcher:   policy.NewKeywordMatcher(reg),
	}
	switch strategy {
	case config.MatchKeyword, "":
		s.strategy = config.MatchKeyword
	case config.MatchClassifier:
		s.classifier = policy.NewClassifier(reg, p)
	default:
		return nil, fmt.Errorf("unknown match strategy %q", strategy)
	}
	return s, nil
}

// WithTokenCounter enables prompt size logging.
func (s *Session) WithTokenCounter(tc *llm.TokenCounter) *Session {
	s.tokens = tc
	return s
}

// Registry returns the policy registry the session cites from.
func (s *Session) Registry() *policy.Registry { return s.registry }

// Strategy returns the citation strategy in use.
func (s *Session) Strategy() config.MatchStrategy { return s.strategy }

// Ask answers query. Upstream failures are logged and reported through
// ServiceErrorMessage; the returned error is non-nil only when ctx is done.
func (s *Session) Ask(ctx context.Context, query string) (*Answer, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return unclear(), nil
	}

	var ans *Answer
	var err error
	if s.strategy == config.MatchClassifier {
		ans, err = s.askClassified(ctx, query)
	} else {
		ans, err = s.askKeyword(ctx, query)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.FromContext(ctx).Error("answering query failed", "error", err)
		return &Answer{Text: ServiceErrorMessage, Outcome: OutcomeError}, nil
	}
	return ans, nil
}

func (s *Session) askKeyword(ctx context.Context, query string) (*Answer, error) {
	res, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(res.Chunks) == 0 {
		return unclear(), nil
	}

	text, err := s.complete(ctx, answerPrompt(res.Texts(), query))
	if err != nil {
		return nil, err
	}
	if text == "" {
		return &Answer{Text: NoPolicyMessage, Outcome: OutcomeNoPolicy, Confidence: res.Confidence, Passages: res.Chunks}, nil
	}

	ans := &Answer{
		Text:       text,
		Outcome:    OutcomeAnswered,
		Confidence: res.Confidence,
		Passages:   res.Chunks,
	}
	if p, ok := s.matcher.Match(query); ok {
		ans.Text += "\n\n" + policy.Citation(p)
		ans.Policies = []policy.Policy{p}
		ans.Primary = &p
	}
	return ans, nil
}

func (s *Session) askClassified(ctx context.Context, query string) (*Answer, error) {
	ranked, err := s.classifier.Classify(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return unclear(), nil
	}

	focused := focusedQuery(query, ranked[0])
	res, err := s.retriever.Retrieve(ctx, focused)
	if err != nil {
		return nil, err
	}
	if len(res.Chunks) == 0 {
		return &Answer{Text: NoPolicyMessage, Outcome: OutcomeNoPolicy, Policies: ranked, Confidence: res.Confidence}, nil
	}

	text, err := s.complete(ctx, focusedPrompt(res.Texts(), focused))
	if err != nil {
		return nil, err
	}
	if text == "" {
		return &Answer{Text: NoPolicyMessage, Outcome: OutcomeNoPolicy, Policies: ranked, Confidence: res.Confidence, Passages: res.Chunks}, nil
	}

	primary := primaryPolicy(ranked, text)
	return &Answer{
		Text:       classifiedAnswer(ranked, primary, text),
		Outcome:    OutcomeAnswered,
		Policies:   ranked,
		Primary:    &primary,
		Confidence: res.Confidence,
		Passages:   res.Chunks,
	}, nil
}

func (s *Session) complete(ctx context.Context, prompt string) (string, error) {
	if s.tokens != nil {
		logging.FromContext(ctx).Debug("sending prompt",
			"tokens", s.tokens.Count(prompt), "exact", s.tokens.Exact())
	}
	resp, err := s.provider.Complete(ctx, llm.UserPrompt(prompt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// primaryPolicy is the first ranked policy the answer mentions by name, or
// the top-ranked one.
func primaryPolicy(ranked []policy.Policy, answer string) policy.Policy {
	lower := strings.ToLower(answer)
	for _, p := range ranked {
		if strings.Contains(lower, strings.ToLower(p.Name)) {
			return p
		}
	}
	return ranked[0]
}

func unclear() *Answer {
	return &Answer{Text: UnclearQueryMessage, Outcome: OutcomeUnclear}
}
