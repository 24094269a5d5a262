package app

import (
	"github.com/pagelift/outreach-backend/internal/http/handlers"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
)

type Handlers struct {
	Domain    *handlers.DomainHandler
	Benchmark *handlers.BenchmarkHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Domain:    handlers.NewDomainHandler(log, serviceset.Qualification, serviceset.Duplicate),
		Benchmark: handlers.NewBenchmarkHandler(log, serviceset.Benchmark),
	}
}
