package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pagelift/outreach-backend/internal/http/handlers"
	"github.com/pagelift/outreach-backend/internal/http/middleware"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
)

type RouterConfig struct {
	ServiceName      string
	AllowOrigins     []string
	Log              *logger.Logger
	DomainHandler    *handlers.DomainHandler
	BenchmarkHandler *handlers.BenchmarkHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS(cfg.AllowOrigins))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Domain analysis
		api.POST("/domains/check-duplicates", cfg.DomainHandler.CheckDuplicates)
		api.POST("/domains/resolve-duplicates", cfg.DomainHandler.ResolveDuplicates)
		api.POST("/domains/bulk-status", cfg.DomainHandler.BulkSetStatus)
		api.POST("/domains/bulk-delete", cfg.DomainHandler.BulkDelete)
		api.PATCH("/domains/:id/status", cfg.DomainHandler.SetStatus)
		api.PUT("/domains/:id/assessment", cfg.DomainHandler.AttachAssessment)
		api.GET("/domains/:id/summary", cfg.DomainHandler.GetSummary)

		// Order benchmarks
		api.POST("/orders/:id/benchmarks", cfg.BenchmarkHandler.Capture)
		api.GET("/orders/:id/benchmarks", cfg.BenchmarkHandler.ListVersions)
		api.GET("/orders/:id/benchmarks/latest", cfg.BenchmarkHandler.GetLatest)
		api.GET("/benchmarks/:id/comparison", cfg.BenchmarkHandler.Compare)
	}

	return router
}
