package app

import (
	"github.com/gin-gonic/gin"

	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/server"
)

func wireRouter(cfg Config, log *logger.Logger, handlerset Handlers) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		ServiceName:      cfg.ServiceName,
		AllowOrigins:     cfg.AllowOrigins,
		Log:              log,
		DomainHandler:    handlerset.Domain,
		BenchmarkHandler: handlerset.Benchmark,
	})
}
