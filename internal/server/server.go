// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"iwitness/internal/config"
	"iwitness/internal/domain/criteria"
	"iwitness/internal/server/handlers"
	"iwitness/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// Dependencies are the services the HTTP surface is built on
type Dependencies struct {
	Sessions handlers.SessionService
	Searches criteria.SearchStore
	Resolver handlers.LocationResolver
	Offsets  criteria.OffsetService
	Twitter  handlers.ResultFetcher
	Events   handlers.EventSubscriber
	Logger   *slog.Logger
}

// NewServer creates a new HTTP server. ctx bounds the background work of
// the middleware.
func NewServer(ctx context.Context, cfg config.ServerConfig, limits config.RateLimitConfig, deps Dependencies) *Server {
	router := NewRouter(ctx, cfg, limits, deps)

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

// NewRouter wires middleware and routes
func NewRouter(ctx context.Context, cfg config.ServerConfig, limits config.RateLimitConfig, deps Dependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	// Middleware
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.Logger(logger))
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if limits.RPS > 0 {
		router.Use(middleware.RateLimit(ctx, limits.RPS, limits.Burst, limits.TTL, logger))
	}
	router.Use(middleware.GeoClientIP)

	sessionHandler := handlers.NewSessionHandler(deps.Sessions)
	resultHandler := handlers.NewResultHandler(deps.Sessions, deps.Twitter)
	searchHandler := handlers.NewSearchHandler(deps.Searches)
	geoHandler := handlers.NewGeoHandler(deps.Resolver, deps.Offsets)

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(60 * time.Second))

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Search sessions
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.CreateSession)
				r.Get("/{id}", sessionHandler.GetSession)
				r.Patch("/{id}", sessionHandler.UpdateSession)
				r.Delete("/{id}", sessionHandler.DeleteSession)
				r.Post("/{id}/zoom/in", sessionHandler.ZoomIn)
				r.Post("/{id}/zoom/out", sessionHandler.ZoomOut)
				r.Post("/{id}/default-center", sessionHandler.DefaultCenter)
				r.Post("/{id}/search", sessionHandler.Search)

				// Results
				r.Get("/{id}/results/twitter", resultHandler.FetchTwitter)
				r.Post("/{id}/results/twitter", resultHandler.ProjectTwitter)
			})

			// Search history
			r.Route("/searches", func(r chi.Router) {
				r.Get("/", searchHandler.ListSearches)
				r.Get("/{id}", searchHandler.GetSearch)
			})

			// Geo API
			r.Route("/geo", func(r chi.Router) {
				r.Get("/locate", geoHandler.Locate)
				r.Get("/offset", geoHandler.GetOffset)
			})
		})
	})

	// WebSocket endpoint for live session events
	if deps.Events != nil {
		router.Get("/ws/sessions/{id}", handlers.SessionWebSocketHandler(
			deps.Sessions,
			deps.Events,
			handlers.DefaultWebSocketConfig(),
			logger,
		))
	}

	return router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
