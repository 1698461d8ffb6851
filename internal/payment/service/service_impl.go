package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/clock"
	paymentdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/payment/domain"
	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
	subscriptiondomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	SubSvc  subscriptiondomain.Service
	PortSvc portdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	subSvc  subscriptiondomain.Service
	portSvc portdomain.Service
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		subSvc:  p.SubSvc,
		portSvc: p.PortSvc,
	}
}

type webhookEvent struct {
	EventID        string `json:"event_id"`
	Type           string `json:"type"`
	SubscriptionID string `json:"subscription_id"`
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte) (*paymentdomain.Result, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, paymentdomain.ErrInvalidProvider
	}
	if !json.Valid(payload) {
		return nil, paymentdomain.ErrInvalidPayload
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.EventID) == "" || strings.TrimSpace(event.Type) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	var subID *snowflake.ID
	if raw := strings.TrimSpace(event.SubscriptionID); raw != "" {
		parsed, err := subscriptiondomain.ParseID(raw)
		if err != nil {
			return nil, paymentdomain.ErrInvalidSubscription
		}
		subID = &parsed
	}

	inserted, err := s.insertEvent(ctx, provider, event, subID, payload)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Redelivery of an event we already acted on.
		return &paymentdomain.Result{Duplicate: true}, nil
	}

	if event.Type != paymentdomain.EventTypeSucceeded {
		return &paymentdomain.Result{}, nil
	}
	if subID == nil {
		return nil, paymentdomain.ErrInvalidSubscription
	}

	if _, err := s.subSvc.Activate(ctx, *subID); err != nil {
		if errors.Is(err, subscriptiondomain.ErrNotFound) {
			return nil, paymentdomain.ErrInvalidSubscription
		}
		return nil, err
	}

	result := &paymentdomain.Result{}
	_, err = s.portSvc.Allocate(ctx, *subID)
	switch {
	case err == nil:
		result.PortAllocated = true
	case errors.Is(err, portdomain.ErrAlreadyAssigned):
		// A concurrent delivery or the provision worker won the race;
		// the subscription has its port either way.
		result.PortAllocated = true
	case errors.Is(err, portdomain.ErrNoAvailablePorts):
		// Payment stands; the provision worker retries once capacity
		// appears.
		result.PortPending = true
		s.log.Warn("no ports available, subscription left pending",
			zap.String("subscription_id", subID.String()),
		)
	default:
		return nil, err
	}
	return result, nil
}

func (s *Service) insertEvent(ctx context.Context, provider string, event webhookEvent, subID *snowflake.ID, payload []byte) (bool, error) {
	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO payment_events (id, provider, provider_event_id, event_type, subscription_id, payload, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, provider_event_id) DO NOTHING`,
		s.genID.Generate(),
		provider,
		event.EventID,
		event.Type,
		subID,
		datatypes.JSON(payload),
		s.clock.Now(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
