package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"FakedIn-backend/internal/auth"
	"FakedIn-backend/internal/config"
	"FakedIn-backend/internal/database"
	"FakedIn-backend/internal/events"
	"FakedIn-backend/internal/lifecycle"
	"FakedIn-backend/internal/logging"
	"FakedIn-backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	auth.SetSecret(cfg.SecretKey)

	db, err := database.NewDBInstance(database.ConfigFrom(cfg.DB), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer nats.Close()
		publisher = nats
	}

	engine := lifecycle.NewEngine(db.Store(),
		lifecycle.WithPublisher(publisher),
		lifecycle.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blacklist := auth.NewInMemoryBlacklistStore()
	go blacklist.Run(ctx, cfg.BlacklistInterval)

	srv := server.NewServer(&server.MyServer{
		Config:    cfg,
		DB:        db,
		Engine:    engine,
		Blacklist: blacklist,
		Redis:     rdb,
		Logger:    logger,
	})

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
