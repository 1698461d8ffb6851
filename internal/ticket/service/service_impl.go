package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/clock"
	customerdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/customer/domain"
	ticketdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/ticket/domain"
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

func NewService(p Params) ticketdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ticket.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Open(ctx context.Context, req ticketdomain.OpenTicketRequest) (*ticketdomain.Ticket, error) {
	customerID, err := ticketdomain.ParseID(req.CustomerID)
	if err != nil {
		return nil, ticketdomain.ErrInvalidCustomer
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, ticketdomain.ErrInvalidSubject
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&customerdomain.Customer{}).Where("id = ?", customerID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ticketdomain.ErrInvalidCustomer
	}

	now := s.clock.Now()
	record := &ticketdomain.Ticket{
		ID:         s.genID.Generate(),
		CustomerID: customerID,
		Subject:    subject,
		Body:       strings.TrimSpace(req.Body),
		Status:     ticketdomain.StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status ticketdomain.TicketStatus) (*ticketdomain.Ticket, error) {
	if !status.Valid() {
		return nil, ticketdomain.ErrInvalidStatus
	}

	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	record.Status = status
	record.UpdatedAt = s.clock.Now()
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*ticketdomain.Ticket, error) {
	var record ticketdomain.Ticket
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ticketdomain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]ticketdomain.Ticket, error) {
	var records []ticketdomain.Ticket
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
