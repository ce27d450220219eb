// Package chi exposes the discovery API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
	discoveryuc "github.com/killmete/aroihub-sub000/internal/usecase/discovery"
	healthuc "github.com/killmete/aroihub-sub000/internal/usecase/health"
	"github.com/killmete/aroihub-sub000/internal/usecase/listview"
)

// Error codes returned in the response body.
const (
	codeBadRequest          = "bad_request"
	codeNotFound            = "not_found"
	codeRestaurantNotFound  = "restaurant_not_found"
	codeUpstreamUnavailable = "upstream_unavailable"
	codeInternalError       = "internal_error"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the discovery API.
type Server struct {
	discovery     *discoveryuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	adminKeys     []string
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(discovery *discoveryuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		discovery: discovery,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrRestaurantNotFound, http.StatusNotFound, codeRestaurantNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, codeUpstreamUnavailable),
	}
	return s
}

// WithAdminKeys configures bearer tokens for the admin routes. With no keys
// the admin routes are open (local development).
func (s *Server) WithAdminKeys(keys []string) *Server {
	s.adminKeys = keys
	return s
}

// Routes registers all API endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/restaurants", s.ListRestaurants)
		r.Route("/restaurants/{id}", func(r chi.Router) {
			r.Get("/reviews", s.RestaurantReviews)
			r.Get("/ratings", s.RestaurantRatings)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(BearerAuthMiddleware(s.adminKeys))
			r.Get("/users", s.AdminUsers)
			r.Get("/reviews", s.AdminReviews)
		})
	})
}

// ListRestaurants handles GET /api/v1/restaurants. Malformed filter or
// paging parameters fall back to defaults rather than failing the request.
func (s *Server) ListRestaurants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := filter.FromValues(q)

	page, err := s.discovery.Search(r.Context(), f, listParamsFromQuery(q))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// RestaurantReviews handles GET /api/v1/restaurants/{id}/reviews.
func (s *Server) RestaurantReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(w, r)
	if !ok {
		return
	}

	page, err := s.discovery.RestaurantReviews(r.Context(), id, listParamsFromQuery(r.URL.Query()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// RestaurantRatings handles GET /api/v1/restaurants/{id}/ratings.
func (s *Server) RestaurantRatings(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(w, r)
	if !ok {
		return
	}

	dist, err := s.discovery.Ratings(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dist)
}

// AdminUsers handles GET /api/v1/admin/users.
func (s *Server) AdminUsers(w http.ResponseWriter, r *http.Request) {
	page, err := s.discovery.Users(r.Context(), listParamsFromQuery(r.URL.Query()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// AdminReviews handles GET /api/v1/admin/reviews.
func (s *Server) AdminReviews(w http.ResponseWriter, r *http.Request) {
	page, err := s.discovery.AllReviews(r.Context(), listParamsFromQuery(r.URL.Query()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func restaurantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "restaurant id must be a positive integer")
		return 0, false
	}
	return id, true
}

func listParamsFromQuery(q url.Values) discoveryuc.ListParams {
	dir, _ := listview.ParseDirection(q.Get("order"))

	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	return discoveryuc.ListParams{
		SortField: q.Get("sort"),
		Direction: dir,
		Page:      page,
		PageSize:  size,
	}
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
		domain.ErrRestaurantNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidFilter,
		domain.ErrProviderUnavailable,
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
