package router

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/straye-as/qr-attendance/internal/config"
	"github.com/straye-as/qr-attendance/internal/database"
	"github.com/straye-as/qr-attendance/internal/http/handler"
	"github.com/straye-as/qr-attendance/internal/http/middleware"
	"github.com/straye-as/qr-attendance/internal/jobs"
	"github.com/straye-as/qr-attendance/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/qr-attendance/docs" // Register swagger docs
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	db                *gorm.DB
	metrics           *metrics.Metrics
	rateLimiter       *middleware.RateLimiter
	cardHandler       *handler.CardHandler
	attendanceHandler *handler.AttendanceHandler
	jobStatus         func() []jobs.JobStatus
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	m *metrics.Metrics,
	rateLimiter *middleware.RateLimiter,
	cardHandler *handler.CardHandler,
	attendanceHandler *handler.AttendanceHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		metrics:           m,
		rateLimiter:       rateLimiter,
		cardHandler:       cardHandler,
		attendanceHandler: attendanceHandler,
	}
}

// SetJobStatus reports background jobs on the readiness probe
func (rt *Router) SetJobStatus(status func() []jobs.JobStatus) {
	rt.jobStatus = status
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	// "/scanner" and "/scanner/" route the same
	r.Use(chimiddleware.StripSlashes)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Metrics.Enabled && rt.metrics != nil {
		r.Method(http.MethodGet, rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Pages
	r.Get("/", rt.cardHandler.Show)
	r.Post("/", rt.cardHandler.Generate)
	r.Get("/scanner", rt.attendanceHandler.ScannerPage)
	r.Get("/records", rt.attendanceHandler.RecordsPage)
	r.Get("/download-excel", rt.attendanceHandler.DownloadWorkbook)

	// Any method reaches the scan handler so it can answer 405 itself
	r.With(rt.rateLimiter.LimitByIP).HandleFunc("/scan-qr", rt.attendanceHandler.Scan)

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/records", rt.attendanceHandler.ListRecords)
		r.With(rt.rateLimiter.LimitByIP).Post("/scans", rt.attendanceHandler.Scan)
	})

	return r
}

// databaseHealth is the readiness probe with pool statistics
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"driver":  rt.cfg.Database.Driver,
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			"max_idle_closed":      stats.MaxIdleClosed,
			"max_lifetime_closed":  stats.MaxLifetimeClosed,
		},
	})
}

// readiness checks the ledger database and the workbook directory
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	dir := filepath.Dir(rt.cfg.Attendance.WorkbookPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		rt.logger.Error("Workbook directory check failed", zap.String("dir", dir), zap.Error(err))
		checks["workbook"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["workbook"] = map[string]interface{}{"status": "healthy", "path": rt.cfg.Attendance.WorkbookPath}
	}

	if rt.jobStatus != nil {
		checks["jobs"] = rt.jobStatus()
	}

	status := http.StatusOK
	overall := "healthy"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}
	writeHealth(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
