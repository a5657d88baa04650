// Package server provides the HTTP and WebSocket front for the platform
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/chefbud/voice-platform/internal/config"
	"github.com/chefbud/voice-platform/internal/session"
)

// Server handles HTTP and WebSocket connections. Sessions are fully
// independent; the only state shared between them is the read-only config.
type Server struct {
	cfg *config.Config
}

// New creates a new server.
func New(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/api/v1/ws", s.handleWebSocket)

	// Liveness
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Serve the PWA
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}

	sess := session.New(conn, s.cfg)
	slog.Info("websocket connected", "remote", r.RemoteAddr, "session_id", sess.ID())

	if err := sess.Run(r.Context()); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "session error")
		return
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":                "ok",
		"credential_configured": s.cfg.HasCredential(),
	})
}
