package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ziadkadry99/policy-bot/internal/assistant"
	"github.com/ziadkadry99/policy-bot/internal/chunker"
	"github.com/ziadkadry99/policy-bot/internal/config"
	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/policy"
	"github.com/ziadkadry99/policy-bot/internal/retrieval"
)

type fakeAsker struct {
	answer *assistant.Answer
	err    error
	asked  []string
}

func (f *fakeAsker) Ask(_ context.Context, q string) (*assistant.Answer, error) {
	f.asked = append(f.asked, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func attendanceAnswer() *assistant.Answer {
	p := policy.Policy{Name: "Student attendance policy", URL: "https://example.edu/attendance"}
	return &assistant.Answer{
		Text:       "Attend **85%** of classes.\n\n" + policy.Citation(p),
		Outcome:    assistant.OutcomeAnswered,
		Policies:   []policy.Policy{p},
		Primary:    &p,
		Confidence: 0.93,
		Passages: []retrieval.Passage{{
			Chunk:    chunker.Chunk{Source: p.URL, Name: p.Name, Text: "Students must attend 85% of classes."},
			Distance: 0.07,
		}},
	}
}

func newTestServer(t *testing.T, asker Asker) (*Server, *prometheus.Registry) {
	t.Helper()
	reg, err := policy.FromConfig(config.DefaultPolicies)
	if err != nil {
		t.Fatal(err)
	}
	promReg := prometheus.NewRegistry()
	srv := New(Config{
		AllowAll:   true,
		Registerer: promReg,
		Gatherer:   promReg,
		Logger:     logging.Discard(),
	}, asker, reg)
	return srv, promReg
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAsker{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAsker{})

	req := httptest.NewRequest("OPTIONS", "/api/ask", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestListPolicies(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAsker{})

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/api/policies", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Policies []policy.Policy `json:"policies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Policies) != len(config.DefaultPolicies) || body.Policies[0].Name != "Student attendance policy" {
		t.Errorf("unexpected policies %+v", body.Policies)
	}
}

func TestAsk(t *testing.T) {
	asker := &fakeAsker{answer: attendanceAnswer()}
	srv, promReg := newTestServer(t, asker)

	req := httptest.NewRequest("POST", "/api/ask", strings.NewReader(`{"question":"What is the attendance policy?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp askResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID == "" || resp.Outcome != "answered" || resp.Confidence != 0.93 {
		t.Errorf("unexpected response %+v", resp)
	}
	if !strings.Contains(resp.HTML, "<strong>85%</strong>") {
		t.Errorf("html not rendered: %q", resp.HTML)
	}
	if !strings.Contains(resp.HTML, `href="https://example.edu/attendance"`) {
		t.Errorf("citation link missing from html: %q", resp.HTML)
	}
	if resp.Primary == nil || resp.Primary.Name != "Student attendance policy" {
		t.Errorf("primary = %+v", resp.Primary)
	}
	if len(resp.Passages) != 1 || resp.Passages[0].Policy != "Student attendance policy" {
		t.Errorf("passages = %+v", resp.Passages)
	}
	if len(asker.asked) != 1 || asker.asked[0] != "What is the attendance policy?" {
		t.Errorf("asked = %q", asker.asked)
	}

	if got := testutil.ToFloat64(srv.metrics.askTotal.WithLabelValues("answered")); got != 1 {
		t.Errorf("ask counter = %v", got)
	}
	if n, err := testutil.GatherAndCount(promReg, "policybot_ask_confidence"); err != nil || n != 1 {
		t.Errorf("confidence histogram count = %d, %v", n, err)
	}
}

func TestAskValidation(t *testing.T) {
	asker := &fakeAsker{answer: attendanceAnswer()}
	srv, _ := newTestServer(t, asker)

	cases := []struct {
		body string
		code int
	}{
		{`not json`, http.StatusBadRequest},
		{`{}`, http.StatusUnprocessableEntity},
		{`{"question":""}`, http.StatusUnprocessableEntity},
		{`{"question":"` + strings.Repeat("a", 2001) + `"}`, http.StatusUnprocessableEntity},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, httptest.NewRequest("POST", "/api/ask", strings.NewReader(c.body)))
		if w.Code != c.code {
			t.Errorf("body %.20q: expected %d, got %d", c.body, c.code, w.Code)
		}
	}
	if len(asker.asked) != 0 {
		t.Error("invalid requests must not reach the assistant")
	}
}

func TestAskFallbackIsStillOK(t *testing.T) {
	asker := &fakeAsker{answer: &assistant.Answer{Text: assistant.UnclearQueryMessage, Outcome: assistant.OutcomeUnclear}}
	srv, _ := newTestServer(t, asker)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("POST", "/api/ask", strings.NewReader(`{"question":"hi"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), assistant.UnclearQueryMessage) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if got := testutil.ToFloat64(srv.metrics.askTotal.WithLabelValues("unclear")); got != 1 {
		t.Errorf("unclear counter = %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAsker{answer: attendanceAnswer()})
	srv.metrics.askTotal.WithLabelValues("answered").Inc()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `policybot_ask_requests_total{outcome="answered"} 1`) {
		t.Errorf("metric missing from output:\n%s", w.Body.String())
	}
}

func TestWebSocketChat(t *testing.T) {
	asker := &fakeAsker{answer: attendanceAnswer()}
	srv, _ := newTestServer(t, asker)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(chatRequest{Type: "ask", Content: "What is the attendance policy?"}); err != nil {
		t.Fatal(err)
	}
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "response" || resp.Answer == nil || resp.Answer.Primary == nil {
		t.Fatalf("unexpected response %+v", resp)
	}

	if err := conn.WriteJSON(chatRequest{Type: "ask"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "error" {
		t.Errorf("expected error for empty content, got %+v", resp)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	resp = chatResponse{}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Type != "error" || resp.Error != "invalid message format" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAsker{})
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Start after Shutdown = %v, want http.ErrServerClosed", err)
	}
}
