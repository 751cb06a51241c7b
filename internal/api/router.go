package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/5ys-5y5/alsign-sub001/internal/api/handlers"
	"github.com/5ys-5y5/alsign-sub001/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(metricsHandler *handlers.MetricsHandler, consensusHandler *handlers.ConsensusHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Metric engine endpoints
	api.HandleFunc("/metrics/catalog", metricsHandler.GetCatalog).Methods("GET")
	api.HandleFunc("/metrics/catalog/reload", metricsHandler.ReloadCatalog).Methods("POST")
	api.HandleFunc("/metrics/compute", metricsHandler.Compute).Methods("POST")
	api.HandleFunc("/metrics/documents/{ticker}", metricsHandler.GetDocument).Methods("GET")

	// Consensus endpoints
	api.HandleFunc("/consensus/events/{id}", consensusHandler.GetEvent).Methods("GET")
	api.HandleFunc("/consensus/resolve", consensusHandler.Resolve).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "alsign-metric-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]any{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
