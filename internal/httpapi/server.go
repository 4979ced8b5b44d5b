// Package httpapi is the web transport: the REST surface, the
// websocket push channel and the operator test page.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/callrouter/internal/gateway"
	"github.com/sweeney/callrouter/internal/metrics"
)

// Server hosts the REST and websocket endpoints in front of a gateway.
type Server struct {
	gw       *gateway.Gateway
	log      *logrus.Logger
	srv      *http.Server
	upgrader websocket.Upgrader

	wsWriteTimeout time.Duration
	startTime      time.Time
}

// NewServer builds the server and its routes.
func NewServer(gw *gateway.Gateway, log *logrus.Logger, addr string) *Server {
	s := &Server{
		gw:  gw,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		wsWriteTimeout: 10 * time.Second,
		startTime:      time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/calls/active", s.handleActiveCalls)
	mux.HandleFunc("/calls/originate", s.handleOriginate)
	mux.HandleFunc("/calls/hangup", s.handleHangup)
	mux.HandleFunc("/ws/calls", s.handleWS)
	mux.HandleFunc("/test", s.handleTestPage)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/live", s.handleLiveness)
	mux.HandleFunc("/health/ready", s.handleReadiness)
	mux.Handle("/metrics", metrics.Handler())

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until Shutdown. http.ErrServerClosed is filtered out.
func (s *Server) Start() error {
	s.log.WithField("addr", s.srv.Addr).Info("HTTP server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "GSM Call Router",
		"status":  "running",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.gw.Status())
}

func (s *Server) handleActiveCalls(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"active_calls": s.gw.ActiveCalls(),
	})
}

type originateRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Context string `json:"context"`
}

func (s *Server) handleOriginate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req originateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.To == "" || req.From == "" {
		s.writeError(w, http.StatusBadRequest, "to and from are required")
		return
	}

	err := s.gw.Originate(req.To, req.From, req.Context)
	if err != nil {
		s.log.WithError(err).Warn("originate failed")
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"type":    "originate_response",
		"success": err == nil,
		"to":      req.To,
		"from":    req.From,
		"context": req.Context,
	})
}

type hangupRequest struct {
	Channel string `json:"channel"`
}

func (s *Server) handleHangup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req hangupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Channel == "" {
		s.writeError(w, http.StatusBadRequest, "channel is required")
		return
	}

	err := s.gw.Hangup(req.Channel)
	if err != nil {
		s.log.WithError(err).Warn("hangup failed")
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"type":    "hangup_response",
		"success": err == nil,
		"channel": req.Channel,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.gw.Status()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"ami_connected":  st.Connected,
	})
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness tracks the AMI link: a router that cannot reach the switch
// should not receive traffic.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	st := s.gw.Status()
	if !st.Connected {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "ami disconnected"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("writing response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{
		"type":    "error",
		"message": msg,
	})
}
