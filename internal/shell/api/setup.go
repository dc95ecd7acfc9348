// Package api composes the HTTP surface of the board: health probes, the
// read-only JSON:API, the OpenAPI document and the server-rendered pages.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/askboard/internal/core/domain"
	"github.com/artpar/askboard/internal/shell/api/openapi"
	"github.com/artpar/askboard/internal/shell/api/resources"
	"github.com/artpar/askboard/internal/shell/store"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/manyminds/api2go"
)

// =============================================================================
// API Setup
// =============================================================================

// APIConfig holds configuration for the API setup.
type APIConfig struct {
	Store  store.Store
	Logger *slog.Logger

	// Web serves every path not claimed by the API (the HTML board).
	Web http.Handler

	// Metrics is mounted at MetricsPath when set.
	Metrics     http.Handler
	MetricsPath string

	Version string
}

// SetupAPI creates the root router. Routes are matched in registration
// order, so the web catch-all is added last.
func SetupAPI(cfg APIConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(recoveryMiddleware(cfg.Logger))

	router.HandleFunc("/health", healthHandler(cfg.Version)).Methods("GET")
	router.HandleFunc("/ready", readyHandler(cfg.Store)).Methods("GET")

	if cfg.Metrics != nil {
		router.Handle(cfg.MetricsPath, cfg.Metrics).Methods("GET")
	}

	openapiGen := openapi.NewGenerator(
		openapi.WithTitle("askboard API"),
		openapi.WithVersion(cfg.Version),
		openapi.WithDescription("Question listing and detail following the JSON:API specification"),
		openapi.WithServer("/api/v1"),
	)
	openapiGen.Register(openapi.Collection{
		Name:    "questions",
		Model:   resources.Question{},
		PerPage: domain.PerPage,
		Filters: []string{"kw"},
		Sorts: []string{
			string(domain.SortRecent),
			string(domain.SortRecommend),
			string(domain.SortPopular),
		},
	})
	router.HandleFunc("/openapi.json", openapiGen.Handler()).Methods("GET")

	jsonAPI := api2go.NewAPIWithResolver("v1", api2go.NewStaticResolver("/api"))
	jsonAPI.ContentType = "application/vnd.api+json"
	jsonAPI.AddResource(resources.Question{}, resources.NewQuestionResource(cfg.Store))

	// api2go routes on /v1/..., so the /api prefix is stripped first.
	router.PathPrefix("/api").Handler(http.StripPrefix("/api", jsonAPI.Handler()))

	if cfg.Web != nil {
		router.PathPrefix("/").Handler(cfg.Web)
	}

	return router
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDMiddleware assigns a request ID and echoes it in the response.
// The ID is also set on the request so downstream middleware reuses it.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = generateRequestID()
			r.Header.Set("X-Request-ID", reqID)
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics and returns a 500 error.
func recoveryMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
					w.Header().Set("Content-Type", "application/vnd.api+json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]interface{}{
						"errors": []map[string]interface{}{
							{
								"status": "500",
								"title":  "Internal Server Error",
								"detail": "An unexpected error occurred",
							},
						},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// Health Handlers
// =============================================================================

func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"version": version,
		})
	}
}

func readyHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		checks := make(map[string]string)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.Ping(ctx); err != nil {
			checks["database"] = "failed"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "not_ready",
				"checks": checks,
			})
			return
		}
		checks["database"] = "ok"

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ready",
			"checks": checks,
		})
	}
}

// =============================================================================
// Helpers
// =============================================================================

// generateRequestID returns a new random request ID.
func generateRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
