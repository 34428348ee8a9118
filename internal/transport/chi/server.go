// Package chi implements the HTTP API: search initiation, result and
// progress polling, the persona listing, and the health and metrics
// endpoints.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopsense/internal/domain"
	healthuc "github.com/kailas-cloud/shopsense/internal/usecase/health"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest            = "bad_request"
	codeValidationFailed      = "validation_failed"
	codeSearchNotFound        = "search_not_found"
	codeRateLimited           = "rate_limited"
	codeSearchBackendError    = "search_backend_error"
	codeReasoningBackendError = "reasoning_backend_error"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// searchService is the pipeline surface the transport depends on.
type searchService interface {
	Initiate(ctx context.Context, req domain.SearchRequest) (string, error)
	Results(ctx context.Context, searchID string) domain.SearchResponse
	Progress(ctx context.Context, searchID string) (domain.ProgressRecord, error)
}

// personaLister serves the read-only persona registry.
type personaLister interface {
	All() []domain.Persona
}

// healthService aggregates component health checks.
type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server implements the HTTP API handlers.
type Server struct {
	searches      searchService
	personas      personaLister
	health        healthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	searches searchService,
	personas personaLister,
	health healthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		searches: searches,
		personas: personas,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSearchNotFound, http.StatusNotFound, codeSearchNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrPersonaInvalid, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrSearchBackend, http.StatusBadGateway, codeSearchBackendError),
		sentinelHandler(domain.ErrReasoningBackend, http.StatusBadGateway, codeReasoningBackendError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Post("/api/search", s.CreateSearch)
	r.Get("/api/search/{searchID}", s.GetSearchResults)
	r.Get("/api/search/{searchID}/progress", s.GetSearchProgress)
	r.Get("/api/personas", s.ListPersonas)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// createSearchRequest is the wire form of a search initiation. The
// enhancement flags default to enabled when omitted.
type createSearchRequest struct {
	Query               string `json:"query"`
	Customer            string `json:"customer"`
	VectorSearchEnabled *bool  `json:"vectorSearchEnabled"`
	RerankerEnabled     *bool  `json:"rerankerEnabled"`
	ReasoningEnabled    *bool  `json:"reasoningEnabled"`
}

type createSearchResponse struct {
	SearchID string `json:"search_id"`
}

// CreateSearch handles POST /api/search.
func (s *Server) CreateSearch(w http.ResponseWriter, r *http.Request) {
	var req createSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	searchID, err := s.searches.Initiate(r.Context(), domain.SearchRequest{
		Query:               req.Query,
		PersonaID:           req.Customer,
		VectorSearchEnabled: orTrue(req.VectorSearchEnabled),
		RerankerEnabled:     orTrue(req.RerankerEnabled),
		ReasoningEnabled:    orTrue(req.ReasoningEnabled),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, createSearchResponse{SearchID: searchID})
}

// GetSearchResults handles GET /api/search/{searchID}. Always returns a
// well-formed snapshot; unknown ids come back error-tagged, never as a 404.
func (s *Server) GetSearchResults(w http.ResponseWriter, r *http.Request) {
	searchID := chi.URLParam(r, "searchID")
	writeJSON(w, http.StatusOK, s.searches.Results(r.Context(), searchID))
}

// GetSearchProgress handles GET /api/search/{searchID}/progress.
func (s *Server) GetSearchProgress(w http.ResponseWriter, r *http.Request) {
	searchID := chi.URLParam(r, "searchID")

	rec, err := s.searches.Progress(r.Context(), searchID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ListPersonas handles GET /api/personas.
func (s *Server) ListPersonas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.personas.All())
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSearchNotFound,
		domain.ErrInvalidRequest,
		domain.ErrPersonaInvalid,
		domain.ErrRateLimited,
		domain.ErrSearchBackend,
		domain.ErrReasoningBackend,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func orTrue(p *bool) bool {
	if p == nil {
		return true
	}
	return *p
}
