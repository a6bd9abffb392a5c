package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ziadkadry99/policy-bot/internal/assistant"
	"github.com/ziadkadry99/policy-bot/internal/logging"
	"github.com/ziadkadry99/policy-bot/internal/policy"
)

const maxRequestBytes = 64 << 10

type askRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type passageJSON struct {
	Policy   string  `json:"policy"`
	Source   string  `json:"source"`
	Distance float32 `json:"distance"`
	Text     string  `json:"text"`
}

type askResponse struct {
	ID         string          `json:"id"`
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	HTML       string          `json:"html"`
	Outcome    string          `json:"outcome"`
	Policies   []policy.Policy `json:"policies,omitempty"`
	Primary    *policy.Policy  `json:"primary,omitempty"`
	Confidence float64         `json:"confidence"`
	Passages   []passageJSON   `json:"passages,omitempty"`
}

type validationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"policies": s.registry.Policies()})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := s.validateRequest(req); errs != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationError{Status: http.StatusUnprocessableEntity, Errors: errs})
		return
	}

	resp, err := s.answer(r.Context(), req.Question)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// answer runs one question through the assistant and records metrics.
func (s *Server) answer(ctx context.Context, question string) (*askResponse, error) {
	start := time.Now()
	ans, err := s.asker.Ask(ctx, question)
	if err != nil {
		logging.FromContext(ctx).Warn("question abandoned", "error", err)
		return nil, err
	}
	s.metrics.observe(ans, time.Since(start))
	return newAskResponse(ctx, question, ans), nil
}

func (s *Server) validateRequest(req askRequest) map[string]string {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	return out
}

func newAskResponse(ctx context.Context, question string, ans *assistant.Answer) *askResponse {
	resp := &askResponse{
		ID:         uuid.NewString(),
		Question:   question,
		Answer:     ans.Text,
		HTML:       renderMarkdown(ctx, ans.Text),
		Outcome:    string(ans.Outcome),
		Policies:   ans.Policies,
		Primary:    ans.Primary,
		Confidence: ans.Confidence,
	}
	for _, p := range ans.Passages {
		resp.Passages = append(resp.Passages, passageJSON{
			Policy:   p.Chunk.Name,
			Source:   p.Chunk.Source,
			Distance: p.Distance,
			Text:     p.Chunk.Text,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
