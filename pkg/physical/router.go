package physical

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dbaas/databaseinfra/pkg/cache"
)

// Router creates the chi.Router serving the form catalogue. A nil cache
// manager disables response caching.
func Router(store *Store, cm *cache.CacheManager, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", HealthHandler())
	r.Get("/readyz", ReadyHandler(store))

	r.With(cm.ListMiddleware()).Get("/engine/", ListEnginesHandler(store))
	r.With(cm.ListMiddleware()).Get("/plan/", ListPlansHandler(store))
	r.With(cm.DetailMiddleware()).Get("/plan/{planId}/", GetPlanHandler(store))

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request served",
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"status", ww.Status(),
				"duration", time.Since(start),
				"requestId", middleware.GetReqID(r.Context()),
				"clientRequestId", r.Header.Get("X-Request-ID"),
			)
		})
	}
}
