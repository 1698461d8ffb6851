package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/customer/domain"
	"github.com/narmeshnigam/karyalaywebsite-sub001/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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
}

func NewService(p Params) customerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (*customerdomain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, customerdomain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, customerdomain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	record := &customerdomain.Customer{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		var count int64
		if countErr := s.db.WithContext(ctx).
			Model(&customerdomain.Customer{}).
			Where("email = ?", email).
			Count(&count).Error; countErr == nil && count > 0 {
			return nil, customerdomain.ErrEmailTaken
		}
		return nil, err
	}
	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*customerdomain.Customer, error) {
	parsed, err := customerdomain.ParseID(id)
	if err != nil {
		return nil, customerdomain.ErrInvalidID
	}

	var record customerdomain.Customer
	if err := s.db.WithContext(ctx).First(&record, "id = ?", parsed).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerdomain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *Service) List(ctx context.Context, req customerdomain.ListCustomerRequest) (*customerdomain.ListCustomerResponse, error) {
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	offset, err := page.Offset()
	if err != nil {
		return nil, err
	}
	limit := page.Limit()

	query := s.db.WithContext(ctx).Model(&customerdomain.Customer{})
	if name := strings.TrimSpace(req.Name); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		query = query.Where("email = ?", strings.ToLower(email))
	}

	var records []customerdomain.Customer
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}

	return &customerdomain.ListCustomerResponse{
		Customers:     records,
		NextPageToken: pagination.NextToken(offset, len(records), limit),
	}, nil
}
