package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	api "github.com/SkMishra77/AuthGate/api/echo"
	redisstore "github.com/SkMishra77/AuthGate/cache/redis"
	"github.com/SkMishra77/AuthGate/config"
	"github.com/SkMishra77/AuthGate/internal/auth"
	"github.com/SkMishra77/AuthGate/mongodb"
	"github.com/SkMishra77/AuthGate/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("mongo_uri", cfg.MongoURI).
		Dur("token_active_time", cfg.TokenActiveTime).
		Msg("Starting authgate server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MongoDB connection")
	}
	defer func() {
		if err := mongodb.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("MongoDB disconnect failed")
		}
	}()

	users, err := mongodb.NewUserRepository(ctx, mongodb.GetDB())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user repository")
	}

	sessions := redisstore.NewSessionStore(redisstore.Options{
		Host:          cfg.RedisHost,
		Port:          cfg.RedisPort,
		URL:           cfg.RedisURL,
		RetryAttempts: cfg.RedisRetryAttempts,
		RetryDelay:    cfg.RedisRetryDelay(),
		ActiveTime:    cfg.TokenActiveTime,
	})
	if err := sessions.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial Redis connection failed, retrying")
		if !sessions.Reconnect(ctx) {
			log.Fatal().Msg("Failed to connect to Redis")
		}
	}
	defer sessions.Close()

	hasher := auth.NewBcryptPasswordHasher(0)
	authService := services.NewAuthService(users, hasher, sessions)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	api.NewAPI(authService, sessions, users).RegisterRoutes(e)

	go func() {
		if err := e.Start(":" + cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
		log.Warn().Str("configured_log_level", cfg.LogLevel).Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogPretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	}
}
