package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mike-mirabal/barback/config"
	"github.com/mike-mirabal/barback/dialogue"
	"github.com/mike-mirabal/barback/messages"
	"github.com/mike-mirabal/barback/session"
)

// Server owns the HTTP surface: a JSON chat endpoint, a websocket
// endpoint where each text frame is one turn, and a health check. All
// dialogue semantics live in the engine; this layer only translates
// methods, status codes and CORS.
type Server struct {
	httpServer *http.Server
	upgrader   websocket.Upgrader
	engine     *dialogue.Engine
	sessions   *session.Memory
	config     *config.Config
	log        *zap.SugaredLogger
}

func New(cfg *config.Config, engine *dialogue.Engine, sessions *session.Memory, log *zap.SugaredLogger) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		config:   cfg,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.AllowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Start begins listening for connections
func (s *Server) Start() error {
	s.log.Infof("🚀 Server starting on port %d", s.config.Port)
	s.log.Infof("📡 Chat endpoint: http://localhost:%d/chat", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("🛑 Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w, r)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		s.writeError(w, http.StatusMethodNotAllowed, messages.ErrCodeInvalidMessage, "POST required")
		return
	}

	var req messages.ChatRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, "invalid JSON body")
		return
	}

	identity := req.SessionID
	if identity == "" {
		identity = deriveIdentity(r)
	}

	reply, err := s.engine.Respond(r.Context(), dialogue.Request{
		Query:    req.Query,
		Mode:     dialogue.Mode(req.Mode),
		Identity: identity,
	})
	if err != nil {
		switch {
		case errors.Is(err, dialogue.ErrEmptyQuery):
			s.writeError(w, http.StatusBadRequest, messages.ErrCodeEmptyQuery, "query is required")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client went away; nothing useful to write.
		default:
			s.log.Errorf("❌ Unexpected engine error: %v", err)
			s.writeError(w, http.StatusInternalServerError, messages.ErrCodeServerError, "internal error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, messages.NewChatResponse(reply.Bubbles, reply.Answer, req.SessionID))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, s.sessions.Count())
}

func (s *Server) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			if allowed == "*" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			return
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, err := sonic.Marshal(body)
	if err != nil {
		s.log.Errorf("❌ Failed to encode response: %v", err)
		return
	}
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, messages.NewErrorResponse(code, message))
}

// deriveIdentity builds a caller identity for clients that hold no
// session token: remote address (sans port) plus user agent. Good
// enough for conversational continuity, not an authentication scheme.
func deriveIdentity(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	return strings.TrimSpace(host + "|" + r.UserAgent())
}
