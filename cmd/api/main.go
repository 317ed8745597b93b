package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/neotogether/neotogether/internal/auth"
	"github.com/neotogether/neotogether/internal/cache"
	"github.com/neotogether/neotogether/internal/config"
	"github.com/neotogether/neotogether/internal/database"
	"github.com/neotogether/neotogether/internal/httpserver"
	"github.com/neotogether/neotogether/internal/mailer"
	"github.com/neotogether/neotogether/internal/monitoring"
	"github.com/neotogether/neotogether/internal/services"
	"github.com/neotogether/neotogether/internal/telemetry"
)

const version = "1.0.0"

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logConfig := telemetry.DefaultLogConfig()
	if cfg.Debug {
		logConfig.Level = telemetry.DebugLevel
	}
	if err := telemetry.InitGlobalLogger(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	logger := telemetry.LogFromContext(ctx)

	shutdownOtel, err := telemetry.InitializeOpenTelemetry(ctx, telemetry.LoadConfigFromEnv())
	if err != nil {
		logger.WithError(err).Warn("OpenTelemetry initialization failed, continuing without tracing")
	} else {
		defer shutdownOtel()
	}

	db, err := database.NewInstrumentedConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	var redisService *cache.RedisService
	if cfg.Redis.Enabled {
		redisService, err = cache.NewRedisService(&cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, continuing without cache")
			redisService = nil
		} else {
			defer redisService.Close()
		}
	}

	tokenOpts := auth.TokenOptions{
		Secret: []byte(cfg.Auth.SecretKey),
		Alg:    cfg.Auth.Algorithm,
		TTL:    cfg.Auth.AccessTokenExpiry,
	}
	mail := mailer.New(cfg.SMTP, cfg.Debug)

	health := monitoring.NewHealthChecker("neo-together", version)
	health.RegisterDatabaseCheck("postgres", db.DB)
	if redisService != nil {
		health.RegisterRedisCheck("redis", redisService)
	}

	server := httpserver.New(cfg.HTTPPort, cfg.Debug, httpserver.Deps{
		Users:        services.NewUserService(db),
		Auth:         services.NewAuthService(db, mail, tokenOpts, cfg.FrontendURL),
		Interests:    services.NewInterestService(db, redisService),
		Availability: services.NewAvailabilityService(db),
		Discovery:    services.NewDiscoveryService(db),
		Matches:      services.NewMatchService(db),
		Groups:       services.NewGroupService(db),
		Health:       health,
		TokenOpts:    tokenOpts,
	})

	go func() {
		logger.WithField("port", cfg.HTTPPort).Info("Starting HTTP server")
		if err := server.Start(); err != nil {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Info("Server exited")
}
