package app

import (
	"gorm.io/gorm"

	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/services"
)

type Services struct {
	Qualification services.QualificationService
	Duplicate     services.DuplicateService
	Benchmark     services.BenchmarkService
}

func wireServices(db *gorm.DB, log *logger.Logger, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")
	return Services{
		Qualification: services.NewQualificationService(db, log, reposet.DomainRecord, clients.summaryCache()),
		Duplicate:     services.NewDuplicateService(db, log, reposet.DomainRecord, reposet.Project),
		Benchmark:     services.NewBenchmarkService(db, log, reposet.Order, reposet.OrderBenchmark, reposet.DomainRecord),
	}
}
