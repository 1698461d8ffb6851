package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/audit/domain"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/clock"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/events"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/observability/metrics"
	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
	subscriptiondomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Registry portdomain.Registry
	LogRepo  portdomain.LogRepository
	AuditSvc auditdomain.Service  `optional:"true"`
	Outbox   *events.Outbox       `optional:"true"`
	Metrics  *metrics.PoolMetrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	registry portdomain.Registry
	logRepo  portdomain.LogRepository
	auditSvc auditdomain.Service
	outbox   *events.Outbox
	metrics  *metrics.PoolMetrics
}

func NewService(p Params) portdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("port.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		registry: p.Registry,
		logRepo:  p.LogRepo,
		auditSvc: p.AuditSvc,
		outbox:   p.Outbox,
		metrics:  p.Metrics,
	}
}

// Allocate binds one AVAILABLE port to the subscription. The claim, the
// subscription link and the log entry commit as one transaction; either
// conditional update affecting zero rows aborts the whole unit, so a
// lost race can never leave a half-linked pair.
func (s *Service) Allocate(ctx context.Context, subscriptionID snowflake.ID) (*portdomain.Port, error) {
	var claimed *portdomain.Port

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub subscriptiondomain.Subscription
		if err := tx.WithContext(ctx).First(&sub, "id = ?", subscriptionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return portdomain.ErrSubscriptionNotFound
			}
			return err
		}
		if sub.AssignedPortID != nil {
			return portdomain.ErrAlreadyAssigned
		}

		// Bound claim retries by the size of the available set at entry;
		// once every candidate has been contended away the pool counts
		// as exhausted.
		var budget int64
		if err := tx.WithContext(ctx).
			Model(&portdomain.Port{}).
			Where("status = ?", portdomain.StatusAvailable).
			Count(&budget).Error; err != nil {
			return err
		}

		for attempt := int64(0); ; attempt++ {
			port, err := s.registry.FindAvailable(ctx, tx)
			if err != nil {
				return err
			}
			if port == nil || attempt >= budget {
				return portdomain.ErrNoAvailablePorts
			}

			now := s.clock.Now()
			ok, err := s.registry.Claim(ctx, tx, port.ID, subscriptionID, now)
			if err != nil {
				return err
			}
			if !ok {
				// Port was claimed under us; try the next candidate.
				continue
			}

			// Subscription-scoped exclusivity: the link only lands if no
			// concurrent call already assigned a port. Zero rows means we
			// lost, and rolling back releases the claim.
			result := tx.WithContext(ctx).Exec(
				`UPDATE subscriptions
				 SET assigned_port_id = ?, updated_at = ?
				 WHERE id = ? AND assigned_port_id IS NULL`,
				port.ID,
				now,
				subscriptionID,
			)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return portdomain.ErrAlreadyAssigned
			}

			if err := s.appendLog(ctx, tx, port.ID, subscriptionID, portdomain.ActionAssigned, nil); err != nil {
				return err
			}
			s.publish(ctx, tx, events.EventPortAssigned, port.ID, subscriptionID, nil)

			port.Status = portdomain.StatusAssigned
			port.AssignedSubscriptionID = &subscriptionID
			port.AssignedAt = &now
			port.UpdatedAt = now
			claimed = port
			return nil
		}
	})
	if err != nil {
		outcome := "failed"
		switch {
		case errors.Is(err, portdomain.ErrAlreadyAssigned):
			outcome = "already_assigned"
		case errors.Is(err, portdomain.ErrNoAvailablePorts):
			outcome = "exhausted"
		}
		s.metrics.ObserveAllocation(outcome)
		return nil, s.classify(err)
	}

	s.metrics.ObserveAllocation("assigned")
	s.log.Info("port allocated",
		zap.String("port_id", claimed.ID.String()),
		zap.String("subscription_id", subscriptionID.String()),
	)
	s.refreshPoolGauges(ctx)
	return claimed, nil
}

// Reassign transfers an ASSIGNED port to another subscription. If the
// target already holds a port, that port is released first so a
// subscription never references two ports.
func (s *Service) Reassign(ctx context.Context, portID, newSubscriptionID, actorID snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		port, err := s.registry.FindByID(ctx, tx, portID)
		if err != nil {
			return err
		}
		if port == nil || port.Status != portdomain.StatusAssigned || port.AssignedSubscriptionID == nil {
			return portdomain.ErrPortNotAssigned
		}
		oldSubID := *port.AssignedSubscriptionID
		if oldSubID == newSubscriptionID {
			return nil
		}

		var newSub subscriptiondomain.Subscription
		if err := tx.WithContext(ctx).First(&newSub, "id = ?", newSubscriptionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return portdomain.ErrTargetSubscriptionInvalid
			}
			return err
		}

		now := s.clock.Now()

		if newSub.AssignedPortID != nil {
			// Target already holds a port: release it so the move keeps
			// every subscription on at most one port.
			heldID := *newSub.AssignedPortID
			ok, err := s.registry.Release(ctx, tx, heldID, now)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: port %s linked by subscription %s is not ASSIGNED",
					portdomain.ErrStorageFatal, heldID, newSubscriptionID)
			}
			if err := tx.WithContext(ctx).Exec(
				`UPDATE subscriptions SET assigned_port_id = NULL, updated_at = ? WHERE id = ? AND assigned_port_id = ?`,
				now, newSubscriptionID, heldID,
			).Error; err != nil {
				return err
			}
			if err := s.appendLog(ctx, tx, heldID, newSubscriptionID, portdomain.ActionReleased, &actorID); err != nil {
				return err
			}
			s.publish(ctx, tx, events.EventPortReleased, heldID, newSubscriptionID, &actorID)
		}

		// Detach the previous subscription.
		if err := tx.WithContext(ctx).Exec(
			`UPDATE subscriptions SET assigned_port_id = NULL, updated_at = ? WHERE id = ? AND assigned_port_id = ?`,
			now, oldSubID, portID,
		).Error; err != nil {
			return err
		}

		ok, err := s.registry.Repoint(ctx, tx, portID, oldSubID, newSubscriptionID, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: port %s reassigned concurrently", portdomain.ErrStorageTransient, portID)
		}

		result := tx.WithContext(ctx).Exec(
			`UPDATE subscriptions
			 SET assigned_port_id = ?, updated_at = ?
			 WHERE id = ? AND assigned_port_id IS NULL`,
			portID, now, newSubscriptionID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: subscription %s gained a port concurrently", portdomain.ErrStorageTransient, newSubscriptionID)
		}

		if err := s.appendLog(ctx, tx, portID, newSubscriptionID, portdomain.ActionReassigned, &actorID); err != nil {
			return err
		}
		s.publish(ctx, tx, events.EventPortReassigned, portID, newSubscriptionID, &actorID)
		s.audit(ctx, tx, actorID, "port.reassign", portID, map[string]any{
			"from_subscription_id": oldSubID.String(),
			"to_subscription_id":   newSubscriptionID.String(),
		})
		return nil
	})
	if err != nil {
		return s.classify(err)
	}

	s.metrics.ObserveReassignment()
	s.refreshPoolGauges(ctx)
	return nil
}

// Release returns an ASSIGNED port to the pool on an administrator's behalf.
func (s *Service) Release(ctx context.Context, portID, actorID snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		port, err := s.registry.FindByID(ctx, tx, portID)
		if err != nil {
			return err
		}
		if port == nil || port.Status != portdomain.StatusAssigned || port.AssignedSubscriptionID == nil {
			return portdomain.ErrPortNotAssigned
		}
		subID := *port.AssignedSubscriptionID

		now := s.clock.Now()
		ok, err := s.registry.Release(ctx, tx, portID, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: port %s released concurrently", portdomain.ErrStorageTransient, portID)
		}

		if err := tx.WithContext(ctx).Exec(
			`UPDATE subscriptions SET assigned_port_id = NULL, updated_at = ? WHERE id = ? AND assigned_port_id = ?`,
			now, subID, portID,
		).Error; err != nil {
			return err
		}

		if err := s.appendLog(ctx, tx, portID, subID, portdomain.ActionReleased, &actorID); err != nil {
			return err
		}
		s.publish(ctx, tx, events.EventPortReleased, portID, subID, &actorID)
		s.audit(ctx, tx, actorID, "port.release", portID, map[string]any{
			"subscription_id": subID.String(),
		})
		return nil
	})
	if err != nil {
		return s.classify(err)
	}

	s.refreshPoolGauges(ctx)
	return nil
}

func (s *Service) Create(ctx context.Context, req portdomain.CreatePortRequest) (*portdomain.Port, error) {
	instanceURL := strings.TrimSpace(req.InstanceURL)
	if instanceURL == "" {
		return nil, portdomain.ErrInvalidPort
	}
	if req.PortNumber <= 0 || req.PortNumber > 65535 {
		return nil, portdomain.ErrInvalidPort
	}

	status := portdomain.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	if status == "" {
		status = portdomain.StatusAvailable
	}
	// Operators create capacity as AVAILABLE or parked as DISABLED;
	// ASSIGNED is reachable only through Allocate.
	if status != portdomain.StatusAvailable && status != portdomain.StatusDisabled {
		return nil, portdomain.ErrInvalidPort
	}

	now := s.clock.Now()
	port := &portdomain.Port{
		ID:          s.genID.Generate(),
		InstanceURL: instanceURL,
		PortNumber:  req.PortNumber,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.registry.Insert(ctx, s.db, port); err != nil {
		return nil, s.classify(err)
	}

	s.refreshPoolGauges(ctx)
	return port, nil
}

func (s *Service) SetStatus(ctx context.Context, portID snowflake.ID, from, to portdomain.Status) error {
	if !from.Valid() || !to.Valid() {
		return portdomain.ErrInvalidPort
	}
	// Assignment state only changes through Allocate/Release.
	if from == portdomain.StatusAssigned || to == portdomain.StatusAssigned {
		return portdomain.ErrPortInUse
	}

	ok, err := s.registry.UpdateStatus(ctx, s.db, portID, from, to)
	if err != nil {
		return s.classify(err)
	}
	if !ok {
		port, err := s.registry.FindByID(ctx, s.db, portID)
		if err != nil {
			return s.classify(err)
		}
		if port == nil {
			return portdomain.ErrPortNotFound
		}
		return portdomain.ErrPortInUse
	}

	s.refreshPoolGauges(ctx)
	return nil
}

func (s *Service) GetByID(ctx context.Context, portID snowflake.ID) (*portdomain.Port, error) {
	port, err := s.registry.FindByID(ctx, s.db, portID)
	if err != nil {
		return nil, s.classify(err)
	}
	if port == nil {
		return nil, portdomain.ErrPortNotFound
	}
	return port, nil
}

func (s *Service) ListByStatus(ctx context.Context, status portdomain.Status) ([]portdomain.Port, error) {
	if status != "" && !status.Valid() {
		return nil, portdomain.ErrInvalidPort
	}
	ports, err := s.registry.ListByStatus(ctx, s.db, status)
	if err != nil {
		return nil, s.classify(err)
	}
	return ports, nil
}

func (s *Service) History(ctx context.Context, portID snowflake.ID) ([]portdomain.AllocationLog, error) {
	entries, err := s.logRepo.FindByPort(ctx, s.db, portID)
	if err != nil {
		return nil, s.classify(err)
	}
	return entries, nil
}

func (s *Service) appendLog(ctx context.Context, tx *gorm.DB, portID, subscriptionID snowflake.ID, action portdomain.Action, actorID *snowflake.ID) error {
	return s.logRepo.Append(ctx, tx, &portdomain.AllocationLog{
		ID:             s.genID.Generate(),
		PortID:         portID,
		SubscriptionID: subscriptionID,
		Action:         action,
		PerformedBy:    actorID,
		CreatedAt:      s.clock.Now(),
	})
}

func (s *Service) publish(ctx context.Context, tx *gorm.DB, eventType string, portID, subscriptionID snowflake.ID, actorID *snowflake.ID) {
	if s.outbox == nil {
		return
	}
	payload := events.PortEventPayload{
		PortID:         portID.String(),
		SubscriptionID: subscriptionID.String(),
	}
	if actorID != nil {
		payload.PerformedBy = actorID.String()
	}
	if err := s.outbox.PublishTx(ctx, tx, events.Event{
		Type: eventType,
		Payload: map[string]any{
			"port_id":         payload.PortID,
			"subscription_id": payload.SubscriptionID,
			"performed_by":    payload.PerformedBy,
		},
	}); err != nil {
		s.log.Warn("failed to publish port event", zap.String("event", eventType), zap.Error(err))
	}
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, actorID snowflake.ID, action string, portID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	actor := actorID.String()
	target := portID.String()
	if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    &actor,
		Action:     action,
		TargetType: "port",
		TargetID:   &target,
		Metadata:   metadata,
	}); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) refreshPoolGauges(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	counts, err := s.registry.CountByStatus(ctx, s.db)
	if err != nil {
		s.log.Warn("failed to refresh pool gauges", zap.Error(err))
		return
	}
	for _, status := range []portdomain.Status{
		portdomain.StatusAvailable,
		portdomain.StatusAssigned,
		portdomain.StatusDisabled,
		portdomain.StatusReserved,
	} {
		s.metrics.SetPoolSize(string(status), counts[status])
	}
}

// classify maps storage failures onto the transient/fatal taxonomy while
// letting domain errors through untouched.
func (s *Service) classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		portdomain.ErrSubscriptionNotFound,
		portdomain.ErrAlreadyAssigned,
		portdomain.ErrNoAvailablePorts,
		portdomain.ErrPortNotAssigned,
		portdomain.ErrTargetSubscriptionInvalid,
		portdomain.ErrPortNotFound,
		portdomain.ErrInvalidPort,
		portdomain.ErrPortInUse,
		portdomain.ErrStorageTransient,
		portdomain.ErrStorageFatal,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", portdomain.ErrStorageTransient, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "constraint failed"),
		strings.Contains(msg, "foreign key"):
		s.log.Error("storage integrity violation", zap.Error(err))
		return fmt.Errorf("%w: %v", portdomain.ErrStorageFatal, err)
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "busy"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadlock"):
		return fmt.Errorf("%w: %v", portdomain.ErrStorageTransient, err)
	default:
		return fmt.Errorf("%w: %v", portdomain.ErrStorageTransient, err)
	}
}
