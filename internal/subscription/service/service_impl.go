package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/clock"
	customerdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/customer/domain"
	plandomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan/domain"
	subscriptiondomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) subscriptiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (*subscriptiondomain.Subscription, error) {
	customerID, err := subscriptiondomain.ParseID(req.CustomerID)
	if err != nil {
		return nil, subscriptiondomain.ErrInvalidCustomer
	}
	planID, err := subscriptiondomain.ParseID(req.PlanID)
	if err != nil {
		return nil, subscriptiondomain.ErrInvalidPlan
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&customerdomain.Customer{}).Where("id = ?", customerID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, subscriptiondomain.ErrInvalidCustomer
	}
	if err := s.db.WithContext(ctx).Model(&plandomain.Plan{}).Where("id = ? AND active = ?", planID, true).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, subscriptiondomain.ErrInvalidPlan
	}

	now := s.clock.Now()
	record := &subscriptiondomain.Subscription{
		ID:         s.genID.Generate(),
		CustomerID: customerID,
		PlanID:     planID,
		Status:     subscriptiondomain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) Activate(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == subscriptiondomain.StatusActive {
		return record, nil
	}
	if record.Status != subscriptiondomain.StatusPending {
		return nil, subscriptiondomain.ErrInvalidStatus
	}

	now := s.clock.Now()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, starts_at = COALESCE(starts_at, ?), updated_at = ?
		 WHERE id = ? AND status = ?`,
		subscriptiondomain.StatusActive,
		now,
		now,
		id,
		subscriptiondomain.StatusPending,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost a race; re-read and report the settled state.
		return s.GetByID(ctx, id)
	}
	return s.GetByID(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == subscriptiondomain.StatusCancelled {
		return record, nil
	}

	now := s.clock.Now()
	if err := s.db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, ends_at = COALESCE(ends_at, ?), updated_at = ? WHERE id = ?`,
		subscriptiondomain.StatusCancelled,
		now,
		now,
		id,
	).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var record subscriptiondomain.Subscription
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscriptiondomain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]subscriptiondomain.Subscription, error) {
	var records []subscriptiondomain.Subscription
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) ListPendingAllocation(ctx context.Context, limit int) ([]subscriptiondomain.Subscription, error) {
	if limit <= 0 {
		limit = 25
	}
	var records []subscriptiondomain.Subscription
	if err := s.db.WithContext(ctx).
		Where("status = ? AND assigned_port_id IS NULL", subscriptiondomain.StatusActive).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
