package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/cache"
	plandomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const codeCacheTTL = 30 * time.Second

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	byCode *cache.TTLCache[string, plandomain.Plan]
}

func NewService(p Params) plandomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("plan.service"),
		genID:  p.GenID,
		byCode: cache.NewTTLCache[string, plandomain.Plan](),
	}
}

func (s *Service) Create(ctx context.Context, req plandomain.CreatePlanRequest) (*plandomain.Plan, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, plandomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, plandomain.ErrInvalidName
	}
	if req.PricePaise < 0 {
		return nil, plandomain.ErrInvalidPrice
	}
	interval := plandomain.BillingInterval(strings.ToLower(strings.TrimSpace(req.BillingInterval)))
	if interval == "" {
		interval = plandomain.IntervalMonthly
	}
	if !interval.Valid() {
		return nil, plandomain.ErrInvalidInterval
	}

	now := time.Now().UTC()
	record := &plandomain.Plan{
		ID:              s.genID.Generate(),
		Code:            code,
		Name:            name,
		PricePaise:      req.PricePaise,
		BillingInterval: interval,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		var count int64
		if countErr := s.db.WithContext(ctx).
			Model(&plandomain.Plan{}).
			Where("code = ?", code).
			Count(&count).Error; countErr == nil && count > 0 {
			return nil, plandomain.ErrCodeTaken
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) Update(ctx context.Context, req plandomain.UpdatePlanRequest) (*plandomain.Plan, error) {
	id, err := plandomain.ParseID(req.ID)
	if err != nil {
		return nil, plandomain.ErrInvalidID
	}

	var record plandomain.Plan
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, plandomain.ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, plandomain.ErrInvalidName
		}
		record.Name = name
	}
	if req.PricePaise != nil {
		if *req.PricePaise < 0 {
			return nil, plandomain.ErrInvalidPrice
		}
		record.PricePaise = *req.PricePaise
	}
	if req.Active != nil {
		record.Active = *req.Active
	}
	record.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	s.byCode.Delete(record.Code)
	return &record, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*plandomain.Plan, error) {
	parsed, err := plandomain.ParseID(id)
	if err != nil {
		return nil, plandomain.ErrInvalidID
	}

	var record plandomain.Plan
	if err := s.db.WithContext(ctx).First(&record, "id = ?", parsed).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, plandomain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*plandomain.Plan, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, plandomain.ErrInvalidCode
	}

	if cached, ok := s.byCode.Get(code); ok {
		return &cached, nil
	}

	var record plandomain.Plan
	if err := s.db.WithContext(ctx).First(&record, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, plandomain.ErrNotFound
		}
		return nil, err
	}
	s.byCode.Set(code, record, codeCacheTTL)
	return &record, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]plandomain.Plan, error) {
	query := s.db.WithContext(ctx).Model(&plandomain.Plan{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var records []plandomain.Plan
	if err := query.Order("price_paise ASC, code ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
