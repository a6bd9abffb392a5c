package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Tests ---

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	for _, p := range []string{"mistral", "openai"} {
		_, err := NewProvider(p, "", "", "some-model", 0)
		if err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider("anthropic", "", "key", "some-model", 0)
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryCreatesOllamaWithoutAPIKey(t *testing.T) {
	provider, err := NewProvider("ollama", "http://localhost:11434/v1", "", "llama3", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "ollama" {
		t.Errorf("expected name 'ollama', got %q", provider.Name())
	}
}

func TestFactoryCreatesMistralProvider(t *testing.T) {
	provider, err := NewProvider("mistral", "https://api.mistral.ai/v1", "test-key", "mistral-large-latest", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := provider.(*OpenAIProvider)
	if !ok {
		t.Fatal("expected *OpenAIProvider")
	}
	if p.Name() != "mistral" || p.model != "mistral-large-latest" {
		t.Errorf("unexpected provider %q model %q", p.Name(), p.model)
	}
}

func TestOpenAIProviderComplete(t *testing.T) {
	var gotModel, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = body.Model
		if len(body.Messages) == 1 {
			gotContent = body.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"served-model",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  the answer  "},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{Name: "mistral", BaseURL: srv.URL + "/v1", APIKey: "k", Model: "default-model"})
	resp, err := p.Complete(context.Background(), UserPrompt("what is the attendance policy?"))
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotModel != "default-model" {
		t.Errorf("expected default model to be sent, got %q", gotModel)
	}
	if gotContent != "what is the attendance policy?" {
		t.Errorf("unexpected prompt %q", gotContent)
	}
	if resp.Content != "  the answer  " {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 3 || resp.FinishReason != "stop" {
		t.Errorf("unexpected metadata %+v", resp)
	}
}

func TestOpenAIProviderCompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL + "/v1", APIKey: "k", Model: "m"})
	if _, err := p.Complete(context.Background(), UserPrompt("hi")); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	mock := NewMockProvider("test")
	if NewRateLimitedProvider(mock, 0) != Provider(mock) {
		t.Error("rpm <= 0 should return the provider unchanged")
	}
}

func TestRateLimiterPassesThrough(t *testing.T) {
	mock := NewMockProvider("test")
	rl := NewRateLimitedProvider(mock, 60)

	resp, err := rl.Complete(context.Background(), UserPrompt("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}
	if rl.Name() != "test" {
		t.Errorf("expected name 'test', got %q", rl.Name())
	}
}

func TestRateLimiterLimitsRequests(t *testing.T) {
	mock := NewMockProvider("test")
	// Allow only 2 requests per minute.
	rl := NewRateLimitedProvider(mock, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	for i := 0; i < 2; i++ {
		if _, err := rl.Complete(ctx, UserPrompt("hello")); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}

	// Third would have to wait ~30s, past the context deadline.
	if _, err := rl.Complete(ctx, UserPrompt("hello")); err == nil {
		t.Error("expected error due to rate limiting + context timeout")
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 upstream calls, got %d", mock.CallCount())
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"hello world!!", 3},
		{"a longer piece of text that has more characters", 11},
	}

	for _, tt := range tests {
		got := EstimateTokens(tt.text)
		if got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTokenCounterFallback(t *testing.T) {
	var c *TokenCounter
	if c.Exact() {
		t.Error("nil counter cannot be exact")
	}
	if got := c.Count("hello world!!"); got != 3 {
		t.Errorf("nil counter should estimate, got %d", got)
	}
	if got := (&TokenCounter{}).Count("hi"); got != 1 {
		t.Errorf("empty counter should estimate, got %d", got)
	}
}

func TestUserPrompt(t *testing.T) {
	req := UserPrompt("question")
	if len(req.Messages) != 1 || req.Messages[0].Role != RoleUser || req.Messages[0].Content != "question" {
		t.Errorf("unexpected request %+v", req)
	}
}
