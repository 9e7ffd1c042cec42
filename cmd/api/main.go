package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/qr-attendance/docs"
	"github.com/straye-as/qr-attendance/internal/config"
	"github.com/straye-as/qr-attendance/internal/database"
	"github.com/straye-as/qr-attendance/internal/http/handler"
	"github.com/straye-as/qr-attendance/internal/http/middleware"
	"github.com/straye-as/qr-attendance/internal/http/router"
	"github.com/straye-as/qr-attendance/internal/jobs"
	"github.com/straye-as/qr-attendance/internal/logger"
	"github.com/straye-as/qr-attendance/internal/metrics"
	"github.com/straye-as/qr-attendance/internal/qrcodec"
	"github.com/straye-as/qr-attendance/internal/repository"
	"github.com/straye-as/qr-attendance/internal/service"
	"github.com/straye-as/qr-attendance/internal/spreadsheet"
	"github.com/straye-as/qr-attendance/internal/storage"
	"go.uber.org/zap"
)

// @title QR Attendance API
// @version 1.0
// @description Daily attendance from QR identity cards: card generation, scan uploads, and an Excel mirror of the ledger

// @contact.name API Support
// @contact.email support@straye.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	switch basicCfg.App.Environment {
	case "staging", "production":
		if host := os.Getenv("SWAGGER_HOST"); host != "" {
			docs.SwaggerInfo.Host = host
		}
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Database credentials come from Key Vault in staging/production
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	location, err := cfg.Attendance.Location()
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	m := metrics.New()
	codec := qrcodec.NewCodec(cfg.Attendance.QRSize, cfg.Attendance.MaxImageSide, log)

	attendanceRepo := repository.NewAttendanceRepository(db)
	mirror := spreadsheet.NewMirror(spreadsheet.Config{
		Path:      cfg.Attendance.WorkbookPath,
		SheetName: cfg.Attendance.SheetName,
		Location:  location,
	}, log)

	log.Info("Attendance workbook configured",
		zap.String("path", mirror.Path()),
		zap.String("timezone", location.String()),
	)

	cardService := service.NewCardService(codec, cfg.Attendance.Identity(), location, log)
	attendanceService := service.NewAttendanceService(codec, attendanceRepo, mirror, m, location, log)

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	cardHandler := handler.NewCardHandler(cardService, cfg.App.Name, log)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, cfg.Attendance.MaxUploadSizeMB, cfg.App.Name, log)

	rt := router.NewRouter(cfg, log, db, m, rateLimiter, cardHandler, attendanceHandler)

	var scheduler *jobs.Scheduler
	if cfg.Archive.Enabled {
		store, err := storage.NewArchiveStore(ctx, &cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to initialize archive storage: %w", err)
		}
		log.Info("Archive storage initialized", zap.String("mode", cfg.Storage.Mode))

		archiveJob := jobs.NewWorkbookArchiveJob(mirror, store, m, cfg.Archive.Keep, cfg.Archive.TimeoutDuration(), log)

		scheduler = jobs.NewScheduler(log)
		if err := scheduler.AddJob(jobs.WorkbookArchiveJobName, cfg.Archive.Cron, archiveJob.Run); err != nil {
			log.Error("Failed to register workbook archive job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
			rt.SetJobStatus(scheduler.Status)
			log.Info("Scheduler started with workbook archive job",
				zap.String("cron_expr", cfg.Archive.Cron),
				zap.Int("keep", cfg.Archive.Keep),
				zap.Duration("timeout", cfg.Archive.TimeoutDuration()),
			)
		}
	} else {
		log.Info("Workbook archive disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn("Error closing database connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
