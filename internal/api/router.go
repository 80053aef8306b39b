package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/floodwatch/flood-report-api/docs"
	"github.com/floodwatch/flood-report-api/internal/api/handler"
	"github.com/floodwatch/flood-report-api/internal/api/middleware"
	"github.com/floodwatch/flood-report-api/internal/core/domain"
	"github.com/floodwatch/flood-report-api/internal/core/ports"
)

// Auth endpoint throttle: 10 requests per IP per minute.
const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Deps carries everything the router wires together. Construction of the
// services happens in main so that index creation and the reaper lifecycle
// stay out of the transport layer.
type Deps struct {
	AuthService   ports.AuthService
	ReportService ports.ReportService
	Assets        ports.AssetStore
	Releaser      ports.AssetReleaser
	Counter       middleware.Counter
	JWTSecret     string
	UploadDir     string
	Mongo         *mongo.Database
	Redis         *redis.Client
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("floodreport"))

	authGate := middleware.Auth(d.JWTSecret, d.Logger)
	throttle := middleware.RateLimit(d.Counter, authRateLimit, authRateWindow, d.Logger)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	e.POST("/auth/register", authHandler.Register, throttle)
	e.POST("/auth/login", authHandler.Login, throttle)
	e.GET("/auth/me", authHandler.Me, authGate)

	// --- Report routes (all behind the auth gate) ---
	reportHandler := handler.NewReportHandler(d.ReportService, d.Assets, d.Releaser)
	reports := e.Group("/api/reports", authGate)
	reports.POST("", reportHandler.Create)
	reports.GET("", reportHandler.List)
	reports.GET("/my", reportHandler.ListMine)
	reports.GET("/:id", reportHandler.Get)
	reports.PUT("/:id", reportHandler.Update)
	reports.PUT("/:id/status", reportHandler.UpdateStatus, middleware.RBAC(domain.RoleAdmin))
	reports.DELETE("/:id", reportHandler.Delete)

	// --- Uploaded images (public, path references returned on reports) ---
	e.Static("/uploads", d.UploadDir)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
