// Package chi is the HTTP transport: a chi router over the search and
// document use cases with JSON error mapping and bearer auth.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sycomix/marqo/internal/domain"
	"github.com/sycomix/marqo/internal/logger"
	documentuc "github.com/sycomix/marqo/internal/usecase/document"
	searchuc "github.com/sycomix/marqo/internal/usecase/search"
	"github.com/sycomix/marqo/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Pinger checks one backing dependency for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server.
type Server struct {
	search        *searchuc.Service
	documents     *documentuc.Service
	checks        map[string]Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. checks maps dependency names to
// health probes; nil entries are skipped.
func NewServer(
	search *searchuc.Service,
	documents *documentuc.Service,
	checks map[string]Pinger,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		documents: documents,
		checks:    checks,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrUnknownField, http.StatusBadRequest, "unknown_field"),
		sentinelHandler(domain.ErrTypeMismatch, http.StatusBadRequest, "type_mismatch"),
		sentinelHandler(domain.ErrInvalidShape, http.StatusBadRequest, "invalid_shape"),
		sentinelHandler(domain.ErrNotSupported, http.StatusNotImplemented, "not_implemented"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
	}
	return s
}

// Routes mounts all API routes on a router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/indexes/{index}", func(r chi.Router) {
		r.Post("/search", s.SearchDocuments)
		r.Get("/stats", s.IndexStats)
		r.Route("/documents/{id}", func(r chi.Router) {
			r.Put("/", s.UpsertDocument)
			r.Get("/", s.GetDocument)
			r.Delete("/", s.DeleteDocument)
		})
	})
}

// SearchDocuments handles POST /api/v1/indexes/{index}/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	ucReq, err := searchRequestFromDTO(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), chi.URLParam(r, "index"), ucReq)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	hits := make([]hitDTO, len(res.Hits))
	for i, h := range res.Hits {
		hits[i] = hitToDTO(h, ucReq.ExposeFacets)
	}

	writeJSON(w, http.StatusOK, searchResponseDTO{
		Hits:   hits,
		Total:  res.Total,
		Limit:  ucReq.Limit,
		Offset: ucReq.Offset,
	})
}

// IndexStats handles GET /api/v1/indexes/{index}/stats.
func (s *Server) IndexStats(w http.ResponseWriter, r *http.Request) {
	indexName := chi.URLParam(r, "index")

	count, err := s.search.VectorCount(r.Context(), indexName)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponseDTO{Index: indexName, VectorCount: count})
}

// UpsertDocument handles PUT /api/v1/indexes/{index}/documents/{id}.
func (s *Server) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	var req documentDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	doc := documentFromDTO(chi.URLParam(r, "id"), req)
	if err := s.documents.Upsert(r.Context(), chi.URLParam(r, "index"), doc); err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentToDTO(doc))
}

// GetDocument handles GET /api/v1/indexes/{index}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chi.URLParam(r, "index"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, documentToDTO(doc))
}

// DeleteDocument handles DELETE /api/v1/indexes/{index}/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "index"), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.checks))

	for name, p := range s.checks {
		if p == nil {
			continue
		}
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "unhealthy"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":  status,
		"version": version.String(),
		"checks":  checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel-derived message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRequest,
		domain.ErrInvalidSchema,
		domain.ErrUnknownField,
		domain.ErrTypeMismatch,
		domain.ErrInvalidShape,
		domain.ErrNotSupported,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			var ufe *domain.UnknownFieldError
			if errors.As(err, &ufe) {
				return ufe.Error()
			}
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

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx, s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
