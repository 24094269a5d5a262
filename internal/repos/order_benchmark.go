package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/pagelift/outreach-backend/internal/pkg/errors"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/types"
)

type OrderBenchmarkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, benchmark *types.OrderBenchmark) (*types.OrderBenchmark, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.OrderBenchmark, error)
	GetLatestByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*types.OrderBenchmark, error)
	ListByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.OrderBenchmark, error)
	MaxVersion(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error)
	DemoteLatest(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type orderBenchmarkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderBenchmarkRepo(db *gorm.DB, baseLog *logger.Logger) OrderBenchmarkRepo {
	repoLog := baseLog.With("repo", "OrderBenchmarkRepo")
	return &orderBenchmarkRepo{db: db, log: repoLog}
}

func (r *orderBenchmarkRepo) Create(ctx context.Context, tx *gorm.DB, benchmark *types.OrderBenchmark) (*types.OrderBenchmark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if benchmark.ID == uuid.Nil {
		benchmark.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(benchmark).Error; err != nil {
		return nil, err
	}
	return benchmark, nil
}

func (r *orderBenchmarkRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.OrderBenchmark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var benchmark types.OrderBenchmark
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&benchmark).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &benchmark, nil
}

func (r *orderBenchmarkRepo) GetLatestByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*types.OrderBenchmark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var benchmark types.OrderBenchmark
	if err := transaction.WithContext(ctx).
		Where("order_id = ? AND is_latest = ?", orderID, true).
		First(&benchmark).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &benchmark, nil
}

func (r *orderBenchmarkRepo) ListByOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) ([]*types.OrderBenchmark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.OrderBenchmark
	if err := transaction.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("version ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *orderBenchmarkRepo) MaxVersion(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var maxVersion int
	if err := transaction.WithContext(ctx).
		Model(&types.OrderBenchmark{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error; err != nil {
		return 0, err
	}
	return maxVersion, nil
}

func (r *orderBenchmarkRepo) DemoteLatest(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.OrderBenchmark{}).
		Where("order_id = ? AND is_latest = ?", orderID, true).
		Update("is_latest", false).Error
}
