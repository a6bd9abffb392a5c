package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/policy-bot/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type    string `json:"type"` // "ask"
	Content string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type   string       `json:"type"` // "response" or "error"
	Answer *askResponse `json:"answer,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// handleWebSocket serves a question/answer loop over one connection. Each
// message is answered independently; no history is kept.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	s.metrics.chatConnections.Inc()
	defer s.metrics.chatConnections.Dec()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read", "error", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, chatResponse{Type: "error", Error: "invalid message format"})
			continue
		}
		if req.Type != "ask" {
			s.send(conn, chatResponse{Type: "error", Error: "unknown message type: " + req.Type})
			continue
		}
		if errs := s.validateRequest(askRequest{Question: req.Content}); errs != nil {
			s.send(conn, chatResponse{Type: "error", Error: "content is required and must be at most 2000 characters"})
			continue
		}

		resp, err := s.answer(r.Context(), req.Content)
		if err != nil {
			return
		}
		s.send(conn, chatResponse{Type: "response", Answer: resp})
	}
}

func (s *Server) send(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.log.Warn("websocket write", "error", err)
	}
}
