// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"hottakes/internal/adapter/cache"
	"hottakes/internal/adapter/events"
	"hottakes/internal/adapter/storage"
	"hottakes/internal/config"
	"hottakes/internal/domain/trend"
	"hottakes/internal/logger"
	"hottakes/internal/server"
	"hottakes/internal/server/handlers"
	geoService "hottakes/internal/service/geo"
	"hottakes/internal/service/trending"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	zlog.Logger = log

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer natsConn.Close()

	var reactionLog trend.ReactionLog
	if cfg.Redis.Enabled {
		rdb, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// Velocity falls back to SQL when the cache is unavailable
			log.Warn().Err(err).Msg("reaction log disabled")
		} else {
			defer rdb.Close()
			retention := trending.NewScorer(trending.ScorerConfig{WindowMinutes: cfg.Trend.WindowMinutes}).WindowDuration()
			reactionLog = cache.NewReactionLog(rdb, retention)
		}
	}

	// Initialize storage adapters
	venueStore := storage.NewVenueStore(db)
	contentStore := storage.NewContentStore(db)
	trendStore := storage.NewTrendStore(db)

	// Initialize services
	geofence := geoService.NewGeofenceService(
		venueStore,
		venueStore,
		geoService.GeofenceConfig{
			CheckInThresholdMeters: cfg.Geo.CheckInThresholdMeters,
			NearbyRadiusMeters:     cfg.Geo.NearbyRadiusMeters,
			MaxRadiusMeters:        cfg.Geo.MaxRadiusMeters,
		},
		log,
	)

	scorer := trending.NewScorer(trending.ScorerConfig{
		TrendingThreshold: cfg.Trend.TrendingThreshold,
		WindowMinutes:     cfg.Trend.WindowMinutes,
	})

	detector := trending.NewDetector(
		scorer,
		contentStore,
		reactionLog,
		trendStore,
		events.NewPublisher(natsConn, cfg.Trend.EventsTopic),
		trending.DetectorConfig{
			RecomputeInterval: cfg.Trend.RecomputeInterval,
			ContentLookback:   cfg.Trend.ContentLookback,
			BatchLimit:        cfg.Trend.BatchLimit,
		},
		log,
	)

	detector.RegisterTrendHandler(func(s trend.ScoredContent) error {
		if s.Score.Label == trend.LabelOnFire {
			log.Info().
				Str("content_id", s.ContentID).
				Float64("velocity", s.Score.Velocity).
				Msg("content on fire")
		}
		return nil
	})

	reactions := trending.NewReactionService(contentStore, reactionLog, log)

	if err := detector.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start trending detector")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, server.Dependencies{
		Geofence:       geofence,
		Trending:       trendStore,
		Scorer:         detector,
		Reactions:      reactions,
		Updates:        handlers.NATSSubscriber{Conn: natsConn},
		UpdatesSubject: events.UpdatedSubject(cfg.Trend.EventsTopic),
		ReadinessProbes: []func(context.Context) error{
			db.Ping,
			func(context.Context) error {
				if !natsConn.IsConnected() {
					return fmt.Errorf("nats not connected")
				}
				return nil
			},
		},
	}, log)

	go func() {
		log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := detector.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("trending detector shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
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

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, log zerolog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("hottakes-api"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
