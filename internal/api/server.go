// Package api serves ranked routes, surcharge breakdowns and resolution
// audit events over a read-only REST interface.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/freight-cli/internal/store"
)

// Server handles API requests against a store.
type Server struct {
	store store.Store
}

// NewRouter builds the HTTP handler. allowedOrigins defaults to any origin.
func NewRouter(st store.Store, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s := &Server{store: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/destinations", s.handleDestinations)
		r.Get("/container-types", s.handleContainerTypes)
		r.Get("/routes/{destination}/{containerType}", s.handleRoutes)
		r.Get("/hapag/destinations", s.handleSurchargeDestinations)
		r.Get("/hapag/route/*", s.handleSurchargeRoute)
		r.Get("/resolutions", s.handleResolutions)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("api: request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// pathParam returns the unescaped URL parameter.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dests, err := s.store.ListDestinations(r.Context())
	if err != nil {
		zap.L().Warn("api: health check store error", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "error", "message": "store unavailable"})
		return
	}
	surcharges, err := s.store.ListSurchargeDestinations(r.Context())
	if err != nil {
		zap.L().Warn("api: health check store error", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "error", "message": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                "ok",
		"destinations":          len(dests),
		"surchargeDestinations": len(surcharges),
	})
}

func (s *Server) handleDestinations(w http.ResponseWriter, r *http.Request) {
	dests, err := s.store.ListDestinations(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if len(dests) == 0 {
		writeError(w, http.StatusNotFound, "no rate data loaded")
		return
	}
	writeJSON(w, http.StatusOK, dests)
}

func (s *Server) handleContainerTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListContainerTypes(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if len(types) == 0 {
		writeError(w, http.StatusNotFound, "no rate data loaded")
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleResolutions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ResolutionFilter{Kind: q.Get("kind"), Destination: q.Get("destination")}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	events, err := s.store.ListResolutions(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
