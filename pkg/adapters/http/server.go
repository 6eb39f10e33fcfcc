// Package http exposes the dialogue engine over a small JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/rapport"
	"github.com/aretw0/rapport/internal/logging"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/inbound"
	"github.com/aretw0/rapport/pkg/persistence/middleware"
	"github.com/go-chi/chi/v5"
)

// Engine defines the part of the rapport engine the server needs.
type Engine interface {
	Dispatch(ctx context.Context, userID string, ev domain.Event) (domain.Instruction, error)
	Render(ctx context.Context, userID string) (domain.Instruction, error)
	Session(ctx context.Context, userID string) (*domain.Session, error)
	Reset(ctx context.Context, userID string) error
}

// Server serves the rapport HTTP API.
type Server struct {
	Engine    Engine
	Streams   *StreamManager
	sanitizer *inbound.Sanitizer
	redactor  *middleware.Redactor
	metrics   http.Handler
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSanitizer replaces the default inbound sanitizer.
func WithSanitizer(s *inbound.Sanitizer) Option {
	return func(srv *Server) { srv.sanitizer = s }
}

// WithRedactor masks matching profile fields in session responses.
func WithRedactor(r *middleware.Redactor) Option {
	return func(srv *Server) { srv.redactor = r }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(srv *Server) { srv.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) { srv.logger = logger }
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	server := &Server{
		Engine:    engine,
		Streams:   NewStreamManager(),
		sanitizer: inbound.NewSanitizer(inbound.DefaultMaxInputSize),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/healthz", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}
	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/render", server.Render)
		r.Post("/events", server.PostEvent)
		r.Get("/session", server.GetSession)
		r.Delete("/session", server.DeleteSession)
		r.Get("/stream", server.SubscribeEvents)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Render handles GET /users/{userID}/render.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	instr, err := s.Engine.Render(r.Context(), userID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Render error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Render failed", "user_id", userID, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, instr)
}

// PostEvent handles POST /users/{userID}/events.
func (s *Server) PostEvent(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var ev domain.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostEvent: invalid request body", "error", err)
		return
	}

	clean, err := s.sanitizer.Event(ev)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn("PostEvent: input rejected", "user_id", userID, "error", err, "size", len(ev.Text))
		return
	}

	instr, err := s.Engine.Dispatch(r.Context(), userID, clean)
	if err != nil {
		http.Error(w, fmt.Sprintf("Dispatch error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Dispatch failed", "user_id", userID, "error", err)
		return
	}

	if payload, err := json.Marshal(instr); err == nil {
		s.Streams.Broadcast(userID, string(payload))
	}
	s.writeJSON(w, http.StatusOK, instr)
}

// GetSession handles GET /users/{userID}/session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sess, err := s.Engine.Session(r.Context(), userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Session error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Session load failed", "user_id", userID, "error", err)
		return
	}
	if s.redactor != nil {
		sess = s.redactor.Redact(sess)
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /users/{userID}/session.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := s.Engine.Reset(r.Context(), userID); err != nil {
		http.Error(w, fmt.Sprintf("Reset error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Reset failed", "user_id", userID, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "rapport-http",
		"version": strings.TrimSpace(rapport.Version),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

// StreamManager fans instructions out to the SSE subscribers of each user.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a channel for userID. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(userID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[userID]; !ok {
		sm.subscribers[userID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[userID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		subs, ok := sm.subscribers[userID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(sm.subscribers, userID)
		}
	}
}

// Subscribers returns the number of open streams for userID.
func (sm *StreamManager) Subscribers(userID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[userID])
}

// Broadcast sends msg to every subscriber of userID. Slow clients miss messages.
func (sm *StreamManager) Broadcast(userID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[userID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// SubscribeEvents handles GET /users/{userID}/stream (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	userID := chi.URLParam(r, "userID")
	ch, cancel := s.Streams.Subscribe(userID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE client connected", "user_id", userID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "user_id", userID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
