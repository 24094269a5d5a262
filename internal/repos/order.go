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

type OrderRepo interface {
	// GetTree loads the order with its full client-group / target-page /
	// assignment hierarchy in one query chain.
	GetTree(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*types.Order, error)
	Create(ctx context.Context, tx *gorm.DB, order *types.Order) (*types.Order, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	repoLog := baseLog.With("repo", "OrderRepo")
	return &orderRepo{db: db, log: repoLog}
}

func (r *orderRepo) GetTree(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var order types.Order
	if err := transaction.WithContext(ctx).
		Preload("ClientGroups").
		Preload("ClientGroups.TargetPages").
		Preload("ClientGroups.TargetPages.Assignments").
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) Create(ctx context.Context, tx *gorm.DB, order *types.Order) (*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for gi := range order.ClientGroups {
		group := &order.ClientGroups[gi]
		if group.ID == uuid.Nil {
			group.ID = uuid.New()
		}
		group.OrderID = order.ID
		for pi := range group.TargetPages {
			page := &group.TargetPages[pi]
			if page.ID == uuid.Nil {
				page.ID = uuid.New()
			}
			page.GroupID = group.ID
			for ai := range page.Assignments {
				assignment := &page.Assignments[ai]
				if assignment.ID == uuid.Nil {
					assignment.ID = uuid.New()
				}
				assignment.TargetPageID = page.ID
			}
		}
	}

	if err := transaction.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}
