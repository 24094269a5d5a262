package app

import (
	"gorm.io/gorm"

	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/repos"
)

type Repos struct {
	DomainRecord   repos.DomainRecordRepo
	Project        repos.ProjectRepo
	Order          repos.OrderRepo
	OrderBenchmark repos.OrderBenchmarkRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		DomainRecord:   repos.NewDomainRecordRepo(db, log),
		Project:        repos.NewProjectRepo(db, log),
		Order:          repos.NewOrderRepo(db, log),
		OrderBenchmark: repos.NewOrderBenchmarkRepo(db, log),
	}
}
