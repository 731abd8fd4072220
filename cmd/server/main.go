package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/config"
	"github.com/stemsi/elms-backend/internal/database"
	"github.com/stemsi/elms-backend/internal/handler"
	"github.com/stemsi/elms-backend/internal/logger"
	"github.com/stemsi/elms-backend/internal/repository"
	"github.com/stemsi/elms-backend/internal/router"
	"github.com/stemsi/elms-backend/internal/service"
	"github.com/stemsi/elms-backend/internal/validator"
	"github.com/stemsi/elms-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ELMS Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	timetableRepo := repository.NewTimetableRepository(pool)
	sessionRepo := repository.NewExamSessionRepository(pool)
	venueRepo := repository.NewVenueRepository(pool)
	invigilatorRepo := repository.NewInvigilatorRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	incidentRepo := repository.NewIncidentRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	monitorService := service.NewMonitorService(regRepo, rdb, log)
	timetableService := service.NewTimetableService(timetableRepo, sessionRepo, venueRepo, invigilatorRepo, regRepo, log)
	logisticsService := service.NewLogisticsService(sessionRepo, regRepo, invigilatorRepo, incidentRepo, monitorService, rdb, log)
	importService := service.NewBulkImportService(timetableRepo, sessionRepo, venueRepo, log)
	venueService := service.NewVenueService(venueRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Timetable:  handler.NewTimetableHandler(timetableService),
		Logistics:  handler.NewLogisticsHandler(logisticsService),
		BulkImport: handler.NewBulkImportHandler(importService),
		Venue:      handler.NewVenueHandler(venueService),
		Monitor:    handler.NewMonitorHandler(timetableService, monitorService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	checkinWorker := worker.NewCheckinWorker(regRepo, rdb, log)
	completionWorker := worker.NewCompletionWorker(sessionRepo, monitorService, cfg.Timezone, cfg.CompletionSweepInterval, log)

	go checkinWorker.Start(workerCtx)
	go completionWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the check-in queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
