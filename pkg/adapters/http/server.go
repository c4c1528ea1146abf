// Package http exposes the design-support engine over a chi router.
//
// Stateless endpoints (/step, /detect) take the conversation context in the
// request body and hand the updated one back. Session endpoints keep contexts
// in the runner's store and stream turn results over server-sent events.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/apc"
	"github.com/aretw0/apc/internal/logging"
	"github.com/aretw0/apc/pkg/detect"
	"github.com/aretw0/apc/pkg/domain"
	"github.com/aretw0/apc/pkg/observability"
	"github.com/aretw0/apc/pkg/ports"
	"github.com/aretw0/apc/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server serves the engine and a runner over HTTP.
type Server struct {
	Engine  ports.Coordinator
	Runner  *runner.Runner
	Streams *StreamManager
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics exposes /metrics and counts turns.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.Metrics = m
	}
}

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// StepRequest is the body of POST /step.
type StepRequest struct {
	Context *domain.Context `json:"context"`
	Event   domain.Event    `json:"event"`
}

// StepResponse carries the transition and the context after applying it.
type StepResponse struct {
	Result  domain.TransitionResult `json:"result"`
	Context *domain.Context         `json:"context"`
}

// DetectRequest is the body of POST /detect.
type DetectRequest struct {
	Context *domain.Context `json:"context"`
	Text    string          `json:"text"`
}

// DetectResponse lists the proposed events. Context has the iteration
// increments applied but no event dispatched yet.
type DetectResponse struct {
	Events    []domain.Event  `json:"events"`
	Actions   []domain.Action `json:"actions,omitempty"`
	Rethink   bool            `json:"rethink"`
	Iteration bool            `json:"iteration"`
	Context   *domain.Context `json:"context"`
}

// TurnRequest is the body of POST /sessions/{id}/turns.
type TurnRequest struct {
	Input string `json:"input"`
}

// NewHandler creates the HTTP handler. A nil runner keeps sessions in memory.
func NewHandler(engine ports.Coordinator, r *runner.Runner, opts ...Option) http.Handler {
	if r == nil {
		r = runner.New(engine, nil)
	}
	s := &Server{
		Engine:  engine,
		Runner:  r,
		Streams: NewStreamManager(),
		Logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Post("/step", s.Step)
	r.Post("/detect", s.Detect)
	r.Get("/graph", s.GetGraph)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/turns", s.Turn)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}
	return r
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

// Step handles POST /step: dispatch one event and apply it to the posted context.
func (s *Server) Step(w http.ResponseWriter, r *http.Request) {
	var body StepRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Step: Invalid request body", "err", err)
		return
	}
	c := body.Context
	if c == nil {
		c = s.Engine.NewContext()
	}

	res := s.Engine.Step(r.Context(), c, body.Event)
	s.Engine.Apply(r.Context(), c, res)
	writeJSON(w, s.Logger, StepResponse{Result: res, Context: c})
}

// Detect handles POST /detect: classify free text against the posted context.
func (s *Server) Detect(w http.ResponseWriter, r *http.Request) {
	var body DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Detect: Invalid request body", "err", err)
		return
	}
	text, err := runner.SanitizeInput(body.Text)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.Logger.Warn("Detect: Input rejected", "err", err, "size", len(body.Text))
		return
	}
	c := body.Context
	if c == nil {
		c = s.Engine.NewContext()
	}

	d := s.Engine.Detect(r.Context(), c, text)
	s.Engine.ApplyActions(r.Context(), c, d.Actions)
	writeJSON(w, s.Logger, detectResponse(d, c))
}

func detectResponse(d detect.Detection, c *domain.Context) DetectResponse {
	events := d.Events
	if events == nil {
		events = []domain.Event{}
	}
	return DetectResponse{Events: events, Actions: d.Actions, Rethink: d.Rethink, Iteration: d.Iteration, Context: c}
}

// Turn handles POST /sessions/{id}/turns.
func (s *Server) Turn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.Logger.Warn("Turn: Invalid request body", "err", err)
		return
	}

	res, err := s.Runner.Turn(r.Context(), id, body.Input)
	if s.Metrics != nil {
		s.Metrics.ObserveTurn("http", err)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, runner.ErrInputTooLarge) || errors.Is(err, runner.ErrInvalidUTF8) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("Turn error: %v", err), status)
		s.Logger.Error("Turn failed", "session_id", id, "err", err)
		return
	}

	if payload, err := json.Marshal(res); err == nil {
		s.Streams.Broadcast(id, string(payload))
	}
	writeJSON(w, s.Logger, res)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Runner.Sessions().List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("ListSessions failed", "err", err)
		return
	}
	writeJSON(w, s.Logger, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.Runner.Sessions().Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("GetSession failed", "session_id", id, "err", err)
		return
	}
	writeJSON(w, s.Logger, c)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Runner.Sessions().Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.Logger.Error("DeleteSession failed", "session_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /graph. With ?session=<id> the session's mode is highlighted.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var c *domain.Context
	if id := r.URL.Query().Get("session"); id != "" {
		loaded, err := s.Runner.Sessions().Load(r.Context(), id)
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
			return
		}
		c = loaded
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Engine.Mermaid(c)))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Logger, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Logger, map[string]string{
		"app":     "apc-http",
		"version": strings.TrimSpace(apc.Version),
	})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
