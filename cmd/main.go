package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chesshive/backend/internal/api/handler"
	"chesshive/backend/internal/auth"
	"chesshive/backend/internal/chathub"
	"chesshive/backend/internal/config"
	"chesshive/backend/internal/events"
	"chesshive/backend/internal/logger"
	"chesshive/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "chesshive-chat"})
	l := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		l.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	l.Info().Msg("server exited")
}

func run(ctx context.Context, cfg *config.Config) error {
	l := logger.L()

	db, err := storage.OpenDatabase(cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := storage.Migrate(db); err != nil {
		return err
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("database ready, migrations complete")

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		l.Info().Str("address", cfg.Redis.Address).Msg("redis connected")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		publisher = kp
		l.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka producer ready")
	}
	defer publisher.Close()

	s := storage.NewStorageService(db, rdb, storage.Options{
		Channel:         cfg.Redis.Channel,
		CacheTTL:        cfg.Redis.CacheTTL,
		HistoryLimit:    cfg.Chat.HistoryLimit,
		MaxHistoryLimit: cfg.Chat.MaxHistoryLimit,
		DirectoryLimit:  cfg.Chat.DirectoryLimit,
	})
	hub := chathub.NewManagerService(s, publisher, chathub.Options{
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	})

	sessions := auth.NewManager(cfg.Auth.JWTSecret)
	if !sessions.Enabled() {
		l.Warn().Msg("auth.jwt_secret is empty, sessions are anonymous")
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware(*l))
	handler.NewHandler(hub, s, sessions, cfg).RegisterRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        c.Handler(router),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		l.Info().Str("addr", srv.Addr).Str("instance", hub.InstanceID()).Msg("starting chat service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
