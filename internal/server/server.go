// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"hottakes/internal/config"
	"hottakes/internal/metrics"
	"hottakes/internal/server/handlers"
)

// Dependencies groups the collaborators the HTTP layer needs
type Dependencies struct {
	Geofence        handlers.GeofenceChecker
	Trending        handlers.TrendingLister
	Scorer          handlers.ContentScorer
	Reactions       handlers.ReactionRecorder
	Updates         handlers.Subscriber
	UpdatesSubject  string
	ReadinessProbes []func(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies, log zerolog.Logger) *Server {
	router := NewRouter(cfg, deps, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// NewRouter builds the route tree
func NewRouter(cfg config.ServerConfig, deps Dependencies, log zerolog.Logger) *chi.Mux {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(log))
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	geoHandler := handlers.NewGeoHandler(deps.Geofence)
	trendHandler := handlers.NewTrendHandler(deps.Trending, deps.Scorer, deps.Reactions)

	router.Handle("/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
			for _, probe := range deps.ReadinessProbes {
				if err := probe(r.Context()); err != nil {
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte("not ready"))
					return
				}
			}
			w.Write([]byte("OK"))
		})

		r.Route("/v1", func(r chi.Router) {
			r.Route("/venues", func(r chi.Router) {
				r.Post("/geofence", geoHandler.CheckGeofence)
				r.Get("/nearby", geoHandler.GetNearbyVenues)
				r.Post("/{id}/checkins", geoHandler.CheckIn)
			})

			r.Get("/trending", trendHandler.GetTrending)

			r.Route("/content/{id}", func(r chi.Router) {
				r.Get("/trending", trendHandler.GetContentTrending)
				r.Post("/reactions", trendHandler.CreateReaction)
			})
		})
	})

	// WebSocket endpoint for live badge updates
	if deps.Updates != nil {
		router.Get("/ws/trending", handlers.TrendingWebSocketHandler(deps.Updates, deps.UpdatesSubject))
	}

	return router
}

// requestLogger logs one line per request with the chi request id
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http_request")
		})
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
