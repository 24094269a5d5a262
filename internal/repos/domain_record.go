package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/pagelift/outreach-backend/internal/pkg/errors"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/types"
)

type DomainRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, records []*types.DomainRecord) ([]*types.DomainRecord, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DomainRecord, error)
	FindByClientAndDomains(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, domains []string) ([]*types.DomainRecord, error)
	FindByClientAndDomain(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, domain string) ([]*types.DomainRecord, error)
	Save(ctx context.Context, tx *gorm.DB, record *types.DomainRecord) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type domainRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDomainRecordRepo(db *gorm.DB, baseLog *logger.Logger) DomainRecordRepo {
	repoLog := baseLog.With("repo", "DomainRecordRepo")
	return &domainRecordRepo{db: db, log: repoLog}
}

func (r *domainRecordRepo) Create(ctx context.Context, tx *gorm.DB, records []*types.DomainRecord) ([]*types.DomainRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(records) == 0 {
		return []*types.DomainRecord{}, nil
	}
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
	}

	if err := transaction.WithContext(ctx).Create(&records).Error; err != nil {
		return nil, translateWriteError(err)
	}
	return records, nil
}

func (r *domainRecordRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DomainRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var record types.DomainRecord
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *domainRecordRepo) FindByClientAndDomains(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, domains []string) ([]*types.DomainRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DomainRecord
	if len(domains) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("client_id = ? AND domain IN ?", clientID, domains).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *domainRecordRepo) FindByClientAndDomain(ctx context.Context, tx *gorm.DB, clientID uuid.UUID, domain string) ([]*types.DomainRecord, error) {
	return r.FindByClientAndDomains(ctx, tx, clientID, []string{domain})
}

func (r *domainRecordRepo) Save(ctx context.Context, tx *gorm.DB, record *types.DomainRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Save(record).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

func (r *domainRecordRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.DomainRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

// translateWriteError maps driver-level uniqueness failures onto the shared
// sentinel so services can apply their fallback policy without knowing the
// store.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrConstraintViolation
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint") {
		return pkgerrors.ErrConstraintViolation
	}
	return err
}
