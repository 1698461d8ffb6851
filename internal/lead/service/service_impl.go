package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/clock"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/events"
	leaddomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/lead/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	outbox *events.Outbox
}

func NewService(p Params) leaddomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("lead.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		outbox: p.Outbox,
	}
}

func (s *Service) Capture(ctx context.Context, req leaddomain.CaptureLeadRequest) (*leaddomain.Lead, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, leaddomain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return nil, leaddomain.ErrInvalidContact
	}

	record := &leaddomain.Lead{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Source:    strings.TrimSpace(req.Source),
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: s.clock.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if s.outbox != nil {
			return s.outbox.PublishTx(ctx, tx, events.Event{
				Type: events.EventLeadCaptured,
				Payload: map[string]any{
					"lead_id": record.ID.String(),
					"source":  record.Source,
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]leaddomain.Lead, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []leaddomain.Lead
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
