package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/WessleyAI/occumatch/engine/match"
	"github.com/WessleyAI/occumatch/pkg/metrics"
)

// matcher is the part of match.Service the handlers use.
type matcher interface {
	Search(ctx context.Context, text string) (*match.Result, error)
	SearchBatch(ctx context.Context, texts []string) (*match.BatchResult, error)
}

type server struct {
	svc     matcher
	ready   func(context.Context) error
	backend string
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func newServer(svc matcher, ready func(context.Context) error, backend string, logger *slog.Logger, m *metrics.Metrics) *server {
	if logger == nil {
		logger = slog.Default()
	}
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}
	return &server{svc: svc, ready: ready, backend: backend, logger: logger, metrics: m, now: time.Now}
}

var endpoints = []string{
	"GET /",
	"GET /api/health",
	"GET /api/search/health",
	"POST /api/search",
	"POST /api/search/batch",
	"GET /metrics",
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.Instrument(route, h))
	}
	handle("GET /{$}", "index", s.handleIndex)
	handle("GET /api/health", "health", s.handleHealth)
	handle("GET /api/search/health", "search_health", s.handleSearchHealth)
	handle("POST /api/search", "search", s.handleSearch)
	handle("POST /api/search/batch", "search_batch", s.handleBatch)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

// SearchRequest is the JSON body for POST /api/search.
type SearchRequest struct {
	Text string `json:"text"`
}

// BatchRequest is the JSON body for POST /api/search/batch.
type BatchRequest struct {
	Texts []string `json:"texts"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *server) stamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func (s *server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Occupation matching API is running",
		"version":   version,
		"timestamp": s.stamp(),
		"endpoints": endpoints,
		"documentation": map[string]any{
			"search": map[string]any{"endpoint": "POST /api/search", "body": map[string]string{"text": "string"}},
			"batch":  map[string]any{"endpoint": "POST /api/search/batch", "body": map[string][]string{"texts": {"string"}}},
		},
	})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": s.stamp()})
}

func (s *server) handleSearchHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]any{
		"success":   true,
		"message":   "Search API is healthy",
		"version":   version,
		"backend":   s.backend,
		"timestamp": s.stamp(),
	}
	if err := s.ready(ctx); err != nil {
		s.logger.Warn("search backend not ready", "backend", s.backend, "err", err)
		body["success"] = false
		body["message"] = "Search API is degraded"
		body["error"] = match.ErrUpstreamUnavailable.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *server) badBody() match.Envelope {
	return match.Envelope{
		Success:    false,
		Error:      "invalid request body",
		ErrorKind:  match.KindInvalidInput,
		AllMatches: []match.MatchView{},
		Timestamp:  s.stamp(),
	}
}

func (s *server) badBatchBody() match.BatchEnvelope {
	return match.BatchEnvelope{
		Success:   false,
		Results:   []match.BatchItemEnvelope{},
		Error:     "invalid request body",
		ErrorKind: match.KindInvalidInput,
		Timestamp: s.stamp(),
	}
}

func (s *server) search(ctx context.Context, text string) (match.Envelope, int) {
	res, err := s.svc.Search(ctx, text)
	if serverFault(err) {
		s.logger.Error("search failed", "err", err)
	}
	return match.NewEnvelope(res, err, s.now()), match.Status(err)
}

func (s *server) searchBatch(ctx context.Context, texts []string) (match.BatchEnvelope, int) {
	res, err := s.svc.SearchBatch(ctx, texts)
	for _, it := range batchItems(res) {
		if serverFault(it.Err) {
			s.logger.Error("batch item failed", "index", it.Index, "err", it.Err)
		}
	}
	if err != nil {
		return match.NewBatchEnvelope(nil, err, s.now()), match.Status(err)
	}
	return match.NewBatchEnvelope(res, nil, s.now()), http.StatusOK
}

// serverFault reports errors worth an error log: not bad input and not a
// caller that gave up.
func serverFault(err error) bool {
	switch match.Kind(err) {
	case match.KindUpstreamUnavailable, match.KindInternal:
		return true
	}
	return false
}

func batchItems(res *match.BatchResult) []match.BatchItem {
	if res == nil {
		return nil
	}
	return res.Items
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, s.badBody())
		return
	}
	env, status := s.search(r.Context(), req.Text)
	writeJSON(w, status, env)
}

func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, s.badBatchBody())
		return
	}
	env, status := s.searchBatch(r.Context(), req.Texts)
	writeJSON(w, status, env)
}

func (s *server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success":            false,
		"error":              "Endpoint not found",
		"message":            "The requested endpoint " + r.Method + " " + r.URL.Path + " does not exist",
		"availableEndpoints": endpoints,
		"timestamp":          s.stamp(),
	})
}
