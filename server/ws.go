package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mike-mirabal/barback/dialogue"
	"github.com/mike-mirabal/barback/messages"
)

const wsWriteTimeout = 10 * time.Second

// handleWebSocket runs the chat loop over a websocket: every inbound
// text frame is one ChatRequest, every outbound frame one ChatResponse.
// The connection is the session; clients that supply no token get a
// UUID identity for the life of the socket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	identity := r.URL.Query().Get("session")
	if identity == "" {
		identity = uuid.New().String()
	}
	s.log.Infof("✅ WebSocket session opened: %s", identity)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warnf("🔌 WebSocket read error: %v", err)
			}
			break
		}

		var req messages.ChatRequest
		if err := sonic.Unmarshal(frame, &req); err != nil {
			s.wsWrite(conn, messages.NewErrorResponse(messages.ErrCodeInvalidMessage, "invalid message format"))
			continue
		}
		if req.SessionID != "" {
			identity = req.SessionID
		}

		reply, err := s.engine.Respond(r.Context(), dialogue.Request{
			Query:    req.Query,
			Mode:     dialogue.Mode(req.Mode),
			Identity: identity,
		})
		if err != nil {
			if errors.Is(err, dialogue.ErrEmptyQuery) {
				s.wsWrite(conn, messages.NewErrorResponse(messages.ErrCodeEmptyQuery, "query is required"))
				continue
			}
			// Context cancellation means the socket is on its way out.
			break
		}

		s.wsWrite(conn, messages.NewChatResponse(reply.Bubbles, reply.Answer, identity))
	}

	s.log.Infof("🔌 WebSocket session closed: %s", identity)
}

func (s *Server) wsWrite(conn *websocket.Conn, body interface{}) {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(body); err != nil {
		s.log.Debugf("WebSocket write failed: %v", err)
	}
}
