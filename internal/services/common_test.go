package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/types"
)

var testDBSeq atomic.Int64

// newTestDB opens an isolated in-memory database with the full schema. Each
// call gets its own named shared-cache DB so pooled connections see the same
// data without tests seeing each other's.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := db.AutoMigrate(
		&types.Client{},
		&types.Project{},
		&types.DomainRecord{},
		&types.Order{},
		&types.OrderClientGroup{},
		&types.OrderTargetPage{},
		&types.DomainAssignment{},
		&types.OrderBenchmark{},
	); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewNop()
}
