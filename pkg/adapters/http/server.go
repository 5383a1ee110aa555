// Package http exposes the runner over a JSON REST API: session
// management, turn execution, and the agent catalog.
package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lablia/docflow/internal/logging"
	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/registry"
	"github.com/lablia/docflow/pkg/runner"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server handles the REST surface.
type Server struct {
	runner   *runner.Runner
	registry *registry.Registry
	appName  string
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the REST server.
func NewServer(r *runner.Runner, reg *registry.Registry, appName string, opts ...Option) *Server {
	s := &Server{
		runner:   r,
		registry: reg,
		appName:  appName,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.getHealth)
	r.Get("/agents", s.listAgents)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/sessions", s.createSession)
	r.Post("/sessions/{sessionID}/turns", s.runTurn)
	r.Get("/sessions/{sessionID}/history", s.getHistory)
	r.Delete("/sessions/{sessionID}", s.deleteSession)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Wire types.

type createSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type sessionResponse struct {
	ID      string `json:"id"`
	AppName string `json:"app_name"`
	UserID  string `json:"user_id"`
}

type turnAttachment struct {
	// Data is the file content, base64 encoded.
	Data     string `json:"data"`
	Filename string `json:"filename,omitempty"`
}

type turnRequest struct {
	Agent       string           `json:"agent"`
	Text        string           `json:"text"`
	Model       string           `json:"model,omitempty"`
	Attachments []turnAttachment `json:"attachments,omitempty"`
}

type turnResponse struct {
	Reply string `json:"reply"`
}

type agentInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
}

// createSession handles POST /sessions.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("createSession: invalid request body", "err", err)
		return
	}

	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}
	if body.UserID == "" {
		body.UserID = "anonymous"
	}

	sess, err := s.runner.CreateSession(r.Context(), body.SessionID, s.appName, body.UserID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create session: %v", err), http.StatusInternalServerError)
		s.logger.Error("createSession failed", "err", err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:      sess.ID,
		AppName: sess.AppName,
		UserID:  sess.UserID,
	}, s.logger)
}

// runTurn handles POST /sessions/{sessionID}/turns.
func (s *Server) runTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body turnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("runTurn: invalid request body", "err", err)
		return
	}

	agent, err := s.registry.Get(body.Agent)
	if err != nil {
		http.Error(w, fmt.Sprintf("Unknown agent: %s", body.Agent), http.StatusNotFound)
		return
	}

	input := runner.TurnInput{Text: body.Text, Model: body.Model}
	for i, att := range body.Attachments {
		data, err := base64.StdEncoding.DecodeString(att.Data)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid base64 in attachment %d", i), http.StatusBadRequest)
			return
		}
		input.Attachments = append(input.Attachments, runner.Attachment{
			Data:     data,
			Filename: att.Filename,
		})
	}

	reply, err := s.runner.RunTurn(r.Context(), agent, sessionID, input)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Turn failed: %v", err), http.StatusBadGateway)
		s.logger.Error("runTurn failed", "session_id", sessionID, "agent", body.Agent, "err", err)
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{Reply: reply}, s.logger)
}

// getHistory handles GET /sessions/{sessionID}/history.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	history, err := s.runner.History(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to load history: %v", err), http.StatusInternalServerError)
		s.logger.Error("getHistory failed", "session_id", sessionID, "err", err)
		return
	}
	if history == nil {
		history = []domain.Message{}
	}

	writeJSON(w, http.StatusOK, history, s.logger)
}

// deleteSession handles DELETE /sessions/{sessionID}.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.runner.Sessions().Delete(r.Context(), sessionID); err != nil {
		http.Error(w, fmt.Sprintf("Failed to delete session: %v", err), http.StatusInternalServerError)
		s.logger.Error("deleteSession failed", "session_id", sessionID, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listAgents handles GET /agents.
func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	infos := make([]agentInfo, 0, len(names))
	for _, name := range names {
		agent, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, agentInfo{
			Name:        agent.Name,
			Kind:        string(agent.Kind),
			Description: agent.Description,
		})
	}

	writeJSON(w, http.StatusOK, infos, s.logger)
}

// getHealth handles GET /health.
func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
