// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/jackc/pgx/v4/pgxpool"

	"iwitness/internal/adapter/cache"
	"iwitness/internal/adapter/messaging"
	"iwitness/internal/adapter/storage"
	"iwitness/internal/config"
	"iwitness/internal/domain/criteria"
	"iwitness/internal/logger"
	"iwitness/internal/server"
	criteriaService "iwitness/internal/service/criteria"
	"iwitness/internal/service/geo"
	resultService "iwitness/internal/service/result"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.Setup(cfg.Environment)
	slog.SetDefault(log)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	natsConn, err := messaging.Connect(cfg.NATS, log)
	if err != nil {
		log.Error("failed to connect to NATS", slog.Any("error", err))
		os.Exit(1)
	}
	defer natsConn.Close()
	bus := messaging.NewBus(natsConn)

	// Initialize storage adapters
	searchStore := storage.NewSearchStore(db)
	if err := searchStore.EnsureSchema(ctx); err != nil {
		log.Error("failed to prepare search schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Timezone offsets, cached in Redis when it is reachable
	var offsets criteria.OffsetService = geo.NewHTTPOffsetService(geo.HTTPOffsetServiceConfig{
		URL:     cfg.Timezone.URL,
		APIKey:  cfg.Timezone.APIKey,
		Timeout: cfg.Timezone.Timeout,
	})
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, timezone offsets will not be cached", slog.Any("error", err))
	} else {
		defer redisClient.Close()
		offsets = geo.NewCachedOffsetService(offsets, cache.NewOffsetCache(redisClient), cfg.Timezone.CacheTTL, log)
	}

	// Initialize services
	viewerLocation, err := cfg.Criteria.LoadLocation()
	if err != nil {
		log.Error("failed to load default timezone", slog.Any("error", err))
		os.Exit(1)
	}

	geolocator := geo.NewHTTPGeolocator(geo.HTTPGeolocatorConfig{
		URL:     cfg.Geolocation.URL,
		Timeout: cfg.Geolocation.Timeout,
	})

	resolver := criteriaService.NewLocationResolver(geolocator, criteriaService.LocationResolverConfig{
		LocatedZoom: cfg.Criteria.LocatedZoom,
		Fallback: criteria.Location{
			Center: criteria.LatLng{cfg.Criteria.FallbackLat, cfg.Criteria.FallbackLng},
			Zoom:   cfg.Criteria.FallbackZoom,
		},
		Timeout: cfg.Geolocation.Timeout,
	}, log)

	sessionManager := criteriaService.NewManager(
		searchStore,
		resolver,
		offsets,
		geo.Distance,
		bus,
		criteriaService.ManagerConfig{
			EventsTopic:        cfg.Session.EventsTopic,
			IdleTimeout:        cfg.Session.IdleTimeout,
			MonitoringInterval: cfg.Session.MonitoringInterval,
			MaxSessions:        cfg.Session.MaxSessions,
			MaxRadiusKm:        cfg.Criteria.MaxRadiusKm,
			Location:           viewerLocation,
			UseLocalTime:       cfg.Criteria.DefaultUseLocal,
			Stream:             cfg.Criteria.DefaultStreaming,
		},
		log,
	)

	twitterFetcher := resultService.NewTwitterFetcher(resultService.TwitterConfig{
		BearerToken: cfg.Twitter.BearerToken,
		Host:        cfg.Twitter.Host,
		MaxResults:  cfg.Twitter.MaxResults,
		Timeout:     cfg.Twitter.Timeout,
	}, log)
	if !twitterFetcher.Enabled() {
		log.Warn("TWITTER_BEARER_TOKEN not set, server-side result fetching is disabled")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(ctx, cfg.Server, cfg.RateLimit, server.Dependencies{
		Sessions: sessionManager,
		Searches: searchStore,
		Resolver: resolver,
		Offsets:  offsets,
		Twitter:  twitterFetcher,
		Events:   bus,
		Logger:   log,
	})

	// Start HTTP server
	go func() {
		log.Info("starting HTTP server", slog.String("host", cfg.Server.Host), slog.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", slog.Any("error", err))
			shutdown <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", slog.Any("error", err))
	}

	// Stop session manager
	if err := sessionManager.Stop(shutdownCtx); err != nil {
		log.Error("session manager shutdown error", slog.Any("error", err))
	}

	log.Info("shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}
