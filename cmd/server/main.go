package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/floodwatch/flood-report-api/internal/api"
	"github.com/floodwatch/flood-report-api/internal/core/service"
	"github.com/floodwatch/flood-report-api/internal/infrastructure/config"
	mongodb "github.com/floodwatch/flood-report-api/internal/infrastructure/db/mongo"
	redisdb "github.com/floodwatch/flood-report-api/internal/infrastructure/db/redis"
	"github.com/floodwatch/flood-report-api/internal/infrastructure/queue"
	"github.com/floodwatch/flood-report-api/internal/infrastructure/storage"
	"github.com/floodwatch/flood-report-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title        Flood Report API
// @version      1.0
// @description  Citizen flood reporting and triage API.
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is not up yet; config failures (including a missing
		// JWT_SECRET) go straight to stderr.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	userRepo := mongodb.NewUserRepository(db)
	reportRepo := mongodb.NewReportRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user indexes failed")
	}
	if err := reportRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("report indexes failed")
	}

	assets, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("upload dir unavailable")
	}

	// --- Background asset reaper ---
	reaper := queue.NewReaper(0, assets, log)
	reaper.Start(ctx)

	// --- Services & router ---
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, log)
	reportService := service.NewReportService(reportRepo, reaper, log)

	e := api.NewRouter(api.Deps{
		AuthService:   authService,
		ReportService: reportService,
		Assets:        assets,
		Releaser:      reaper,
		Counter:       redisdb.NewFixedWindow(rdb),
		JWTSecret:     cfg.JWTSecret,
		UploadDir:     assets.Dir(),
		Mongo:         db,
		Redis:         rdb,
		Logger:        log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("http server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
