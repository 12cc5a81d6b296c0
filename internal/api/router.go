package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/pepsafe/pepsafe-backend-go/internal/handler"
	"github.com/pepsafe/pepsafe-backend-go/internal/metrics"
	"github.com/pepsafe/pepsafe-backend-go/internal/middleware"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Ping        *handler.PingHandler
	Subjects    *handler.SubjectHandler
	ChokePoints *handler.ChokePointHandler
	Dashboard   *handler.DashboardHandler
	Stats       *handler.StatsHandler
	Health      *handler.HealthHandler
}

// Options configures cross-cutting middleware.
type Options struct {
	APIKey             string
	JWTSecret          string
	CORSAllowedOrigins string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger
}

// SetupRouter builds the gin engine with all routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.CORS(opts.CORSAllowedOrigins))
	r.Use(metrics.Middleware())

	// health checks and scraping stay unauthenticated
	r.GET("/health", h.Health.Health)
	r.GET("/health/ready", h.Health.Ready)
	r.GET("/metrics", metrics.Handler())

	apiKey := middleware.APIKey(opts.APIKey, opts.Logger)
	dashboardAuth := middleware.DashboardAuth(opts.APIKey, opts.JWTSecret, opts.Logger)

	v1 := r.Group("/api/v1")
	{
		ping := v1.Group("/ping", apiKey)
		if opts.RateLimiter != nil {
			ping.Use(middleware.RateLimit(opts.RateLimiter))
		}
		{
			ping.POST("", h.Ping.Ingest)
			ping.POST("/owntracks", h.Ping.OwnTracks)
		}

		chokePoints := v1.Group("/choke-points", apiKey)
		{
			chokePoints.GET("", h.ChokePoints.List)
			chokePoints.POST("", h.ChokePoints.Create)
			chokePoints.GET("/:id", h.ChokePoints.Get)
			chokePoints.DELETE("/:id", h.ChokePoints.Delete)
		}

		users := v1.Group("/users")
		{
			users.POST("", apiKey, h.Subjects.Create)
			users.GET("/:id", apiKey, h.Subjects.Get)
			users.PUT("/:id/home-zone", apiKey, h.Subjects.SetHomeZone)
			users.DELETE("/:id/home-zone", apiKey, h.Subjects.ClearHomeZone)
			users.GET("/:id/risk", dashboardAuth, h.Dashboard.Risk)
			users.GET("/:id/stats", dashboardAuth, h.Stats.GetWalkStatistics)
			users.GET("/:id/stats/hourly", dashboardAuth, h.Stats.GetHourlyActivity)
		}
	}

	dashboard := r.Group("/dashboard", dashboardAuth)
	{
		dashboard.GET("/api/:id", h.Dashboard.Dashboard)
	}

	return r
}
