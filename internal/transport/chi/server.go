package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/person"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/vpsearch/internal/logger"
	"github.com/kailas-cloud/vpsearch/internal/metrics"
	healthuc "github.com/kailas-cloud/vpsearch/internal/usecase/health"
)

// maxBodyBytes fits a person record with a large vector.
const maxBodyBytes = 1 << 20

// Searcher is the retrieval surface used by the HTTP API.
type Searcher interface {
	SearchVPRoles(ctx context.Context, department string) (result.Outcome, error)
	SearchDepartment(ctx context.Context, filterRole, department string, limit int) (result.Outcome, error)
	Search(ctx context.Context, req request.Request) (result.Outcome, error)
}

// Ingester stores person records.
type Ingester interface {
	Store(ctx context.Context, rec person.Record) (string, error)
	EmbedAndStore(ctx context.Context, name, role, normalizedRole string) (string, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Defaults are applied to requests that omit the filter role or limit.
type Defaults struct {
	FilterRole     string
	CandidateLimit int
	NumCandidates  int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the vpsearch HTTP API.
type Server struct {
	search        Searcher
	ingest        Ingester
	health        HealthChecker
	defaults      Defaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, ingest Ingester, health HealthChecker, defaults Defaults, logger *zap.Logger) *Server {
	if defaults.FilterRole == "" {
		defaults.FilterRole = domain.DefaultFilterRole
	}
	if defaults.CandidateLimit <= 0 {
		defaults.CandidateLimit = domain.DefaultCandidateLimit
	}
	s := &Server{
		search:   search,
		ingest:   ingest,
		health:   health,
		defaults: defaults,
		logger:   logger,
	}
	// Space mismatch is also InvalidArgument, so it goes first.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmbeddingSpaceMismatch, http.StatusBadRequest, CodeSpaceMismatch, true),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, CodeInvalidArgument, true),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, CodeEmbeddingUnavailable, false),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, CodeIndexUnavailable, false),
		sentinelHandler(domain.ErrConfiguration, http.StatusInternalServerError, CodeConfiguration, false),
	}
	return s
}

// Router builds the chi router with the standard middleware stack.
func Router(s *Server, apiKeys []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/vp-roles", s.SearchVPRoles)
		r.Post("/search", s.Search)
		r.Post("/people", s.CreatePerson)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// SearchVPRoles handles GET /v1/vp-roles?department=&limit=.
func (s *Server) SearchVPRoles(w http.ResponseWriter, r *http.Request) {
	department := r.URL.Query().Get("department")
	r = r.WithContext(logpkg.With(r.Context(), zap.String("department", department)))

	var (
		out result.Outcome
		err error
	)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be an integer")
			return
		}
		out, err = s.search.SearchDepartment(r.Context(), s.defaults.FilterRole, department, limit)
	} else {
		out, err = s.search.SearchVPRoles(r.Context(), department)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	s.writeOutcome(w, r, out)
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	role := req.FilterRole
	if role == "" {
		role = s.defaults.FilterRole
	}
	limit := s.defaults.CandidateLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	var (
		out result.Outcome
		err error
	)
	if len(req.Vector) > 0 {
		// Пул из конфига меньше limit расширяется до limit, как в SearchDepartment.
		var numCandidates int
		if s.defaults.NumCandidates > limit {
			numCandidates = s.defaults.NumCandidates
		}
		if req.NumCandidates != nil {
			numCandidates = *req.NumCandidates
		}
		var sr request.Request
		sr, err = request.New(role, req.Vector, limit, numCandidates)
		if err == nil {
			out, err = s.search.Search(r.Context(), sr)
		}
	} else {
		out, err = s.search.SearchDepartment(r.Context(), role, req.Department, limit)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	s.writeOutcome(w, r, out)
}

// CreatePerson handles POST /v1/people.
func (s *Server) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req PersonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		id  string
		err error
	)
	if len(req.RoleVector) > 0 {
		var rec person.Record
		rec, err = person.New(req.Name, req.Role, req.NormalizedRole, req.RoleVector, req.EmbeddingModel)
		if err == nil {
			id, err = s.ingest.Store(r.Context(), rec)
		}
	} else {
		id, err = s.ingest.EmbedAndStore(r.Context(), req.Name, req.Role, req.NormalizedRole)
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/people/"+id)
	writeJSON(w, http.StatusCreated, PersonResponse{ID: id})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// writeOutcome renders ok and failed outcomes with 200; the status field tells them apart.
func (s *Server) writeOutcome(w http.ResponseWriter, r *http.Request, out result.Outcome) {
	resp := SearchResponse{
		Status:       string(out.Status),
		Results:      make([]ResultItem, 0, len(out.Results)),
		Count:        len(out.Results),
		AverageScore: out.AverageScore(),
	}
	for _, res := range out.Results {
		resp.Results = append(resp.Results, ResultItem{
			Name:  res.Name(),
			Role:  res.Role(),
			Score: res.Score(),
			Band:  string(res.Band()),
		})
	}
	if !out.OK() {
		logpkg.FromContext(r.Context()).Warn("search degraded", zap.Error(out.Err))
		resp.Error = safeDomainMessage(out.Err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmbeddingSpaceMismatch,
		domain.ErrInvalidArgument,
		domain.ErrEmbeddingUnavailable,
		domain.ErrIndexUnavailable,
		domain.ErrConfiguration,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// detailed handlers return the full message; argument errors carry no internals.
func sentinelHandler(sentinel error, status int, code ErrorCode, detailed bool) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := safeDomainMessage(err)
		if detailed {
			msg = argumentMessage(err)
		}
		writeError(w, status, code, msg)
		return true
	}
}

// argumentMessage strips the wrapping chain down to the validation message.
func argumentMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrInvalidArgument.Error()+": "); i >= 0 {
		return msg[i:]
	}
	if i := strings.Index(msg, domain.ErrEmbeddingSpaceMismatch.Error()); i >= 0 {
		return msg[i:]
	}
	return msg
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}
