// Package http exposes the Waygate engine as a JSON API over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/averycross/waygate"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server wires the transition engine behind a chi router.
type Server struct {
	engine   ports.TransitionEngine
	recorder ports.VisitRecorder // optional
	metrics  http.Handler       // optional

	mu         sync.RWMutex
	lastResult *domain.TransitionResult
}

// Option configures the Server.
type Option func(*Server)

// WithVisitRecorder enables the /contexts/visited listing.
func WithVisitRecorder(r ports.VisitRecorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithMetricsHandler mounts a metrics endpoint at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewHandler creates the HTTP handler for the engine. It also subscribes
// to the engine's completion channel to answer status queries, so at most
// one NewHandler per engine instance.
func NewHandler(engine ports.TransitionEngine, opts ...Option) http.Handler {
	s := &Server{engine: engine}
	for _, opt := range opts {
		opt(s)
	}

	go s.consumeResults()

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Post("/transitions", s.beginTransition)
	r.Get("/transitions/current", s.status)
	r.Get("/contexts/visited", s.listVisited)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(waygate.OpenAPISpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func (s *Server) consumeResults() {
	for res := range s.engine.Finished() {
		r := res
		s.mu.Lock()
		s.lastResult = &r
		s.mu.Unlock()
	}
}

func (s *Server) last() *domain.TransitionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// beginRequest is the POST /transitions body.
type beginRequest struct {
	DestinationID  string       `json:"destination_id"`
	AnchorHint     string       `json:"anchor_hint,omitempty"`
	CoordinateHint *domain.Vec3 `json:"coordinate_hint,omitempty"`
	CostHint       any          `json:"cost_hint,omitempty"`
}

type beginResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func (s *Server) beginTransition(w http.ResponseWriter, r *http.Request) {
	var body beginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req := domain.TransitionRequest{
		DestinationID:  body.DestinationID,
		AnchorHint:     body.AnchorHint,
		CoordinateHint: body.CoordinateHint,
		CostHint:       body.CostHint,
	}

	// Begin is fire-and-forget; the pipeline must outlive this handler, so
	// detach it from the request's cancellation.
	accepted, err := s.engine.Begin(context.WithoutCancel(r.Context()), req)
	status := http.StatusAccepted
	resp := beginResponse{Accepted: accepted}
	if err != nil {
		resp.Reason = err.Error()
		switch {
		case errors.Is(err, domain.ErrTransitionBusy):
			status = http.StatusConflict
		case errors.Is(err, domain.ErrRequestRejected):
			status = http.StatusBadRequest
		default:
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, resp)
}

type statusResponse struct {
	InProgress bool                     `json:"in_progress"`
	LastResult *domain.TransitionResult `json:"last_result,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		InProgress: s.engine.InProgress(),
		LastResult: s.last(),
	})
}

func (s *Server) listVisited(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		http.Error(w, "No visit recorder configured", http.StatusNotImplemented)
		return
	}
	visits, err := s.recorder.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, visits)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing sensible left to do.
		_ = err
	}
}
