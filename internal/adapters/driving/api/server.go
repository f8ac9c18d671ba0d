// Package api provides the HTTP query API over the assistant and retriever.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/custodia-labs/docqa/internal/adapters/driving/sessions"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/metrics"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// IndexStats reports the size of the serving index.
type IndexStats interface {
	Len() int
}

// Config holds server dependencies.
type Config struct {
	Assistant driving.Assistant
	Retriever driving.Retriever
	Index     IndexStats
	TopK      int
	Logger    *zap.Logger
}

// Server serves the JSON query API.
type Server struct {
	assistant driving.Assistant
	retriever driving.Retriever
	index     IndexStats
	sessions  *sessions.Registry
	topK      int
	logger    *zap.Logger
}

// AnswerRequest is the body of POST /v1/answer.
type AnswerRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// AnswerResponse is the body returned by POST /v1/answer.
type AnswerResponse struct {
	Answer    string   `json:"answer"`
	Route     string   `json:"route"`
	Failure   string   `json:"failure,omitempty"`
	SessionID string   `json:"session_id"`
	Sources   []Source `json:"sources"`
}

// RetrieveRequest is the body of POST /v1/retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// RetrieveResponse is the body returned by POST /v1/retrieve.
type RetrieveResponse struct {
	Results []Source `json:"results"`
}

// Source is one retrieved passage.
type Source struct {
	ChunkID  string  `json:"chunk_id"`
	Page     int     `json:"page"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// NewServer creates an HTTP API server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = domain.DefaultSettings().TopK
	}
	return &Server{
		assistant: cfg.Assistant,
		retriever: cfg.Retriever,
		index:     cfg.Index,
		sessions:  sessions.New(cfg.Assistant.NewSession, sessions.DefaultTTL),
		topK:      topK,
		logger:    logger,
	}
}

// Handler returns the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/answer", s.Answer)
		r.Post("/retrieve", s.Retrieve)
		r.Post("/sessions/{id}/reset", s.ResetSession)
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("http server listening", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Answer handles POST /v1/answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "question is required")
		return
	}

	session := s.sessions.Get(req.SessionID)
	reply := s.assistant.Answer(r.Context(), session, req.Question)
	if reply.Route == domain.RouteEnded {
		handleError(w, domain.ErrSessionEnded)
		return
	}
	if reply.Failed() {
		s.logger.Warn("answer fell back to apology",
			zap.String("session_id", session.ID),
			zap.String("failure", string(reply.Failure)),
		)
	}

	writeJSON(w, http.StatusOK, AnswerResponse{
		Answer:    reply.Text,
		Route:     string(reply.Route),
		Failure:   string(reply.Failure),
		SessionID: session.ID,
		Sources:   toSources(reply.Sources),
	})
}

// Retrieve handles POST /v1/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query is required")
		return
	}
	k := req.K
	if k == 0 {
		k = s.topK
	}

	scored, err := s.retriever.RetrieveScored(r.Context(), req.Query, k)
	if err != nil {
		s.logger.Error("retrieve", zap.Error(err))
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RetrieveResponse{Results: toSources(scored)})
}

// ResetSession handles POST /v1/sessions/{id}/reset.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Lookup(chi.URLParam(r, "id"))
	if !ok {
		handleError(w, errSessionNotFound)
		return
	}
	s.assistant.Reset(session)
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok", "sessions": s.sessions.Len()}
	if s.index != nil {
		body["chunks"] = s.index.Len()
	}
	writeJSON(w, http.StatusOK, body)
}

func toSources(scored []domain.ScoredChunk) []Source {
	out := make([]Source, len(scored))
	for i, sc := range scored {
		out[i] = Source{
			ChunkID:  sc.Chunk.ID,
			Page:     sc.Chunk.Page,
			Position: sc.Chunk.Position,
			Score:    sc.Score,
			Content:  sc.Chunk.Content,
		}
	}
	return out
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
