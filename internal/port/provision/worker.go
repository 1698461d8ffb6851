// Package provision retries port allocation for paid subscriptions that
// are still waiting on capacity. Payment success never fails on an empty
// pool; this loop picks those subscriptions up once an operator adds
// ports or an old one is released.
package provision

import (
	"context"
	"errors"
	"time"

	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
	subscriptiondomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	PortSvc portdomain.Service
	SubSvc  subscriptiondomain.Service
	Config  Config `optional:"true"`
}

type Worker struct {
	log     *zap.Logger
	portSvc portdomain.Service
	subSvc  subscriptiondomain.Service
	cfg     Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:     p.Log.Named("port.provision"),
		portSvc: p.PortSvc,
		subSvc:  p.SubSvc,
		cfg:     p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Warn("provision sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce attempts allocation for one batch of pending subscriptions and
// returns how many received a port. It stops early when the pool is
// exhausted, since every later attempt in the batch would fail the same
// way.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	pending, err := w.subSvc.ListPendingAllocation(ctx, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	allocated := 0
	for _, sub := range pending {
		_, err := w.portSvc.Allocate(ctx, sub.ID)
		switch {
		case err == nil:
			allocated++
		case errors.Is(err, portdomain.ErrNoAvailablePorts):
			w.log.Info("port pool exhausted, ending sweep",
				zap.Int("allocated", allocated),
				zap.Int("still_pending", len(pending)-allocated),
			)
			return allocated, nil
		case errors.Is(err, portdomain.ErrAlreadyAssigned):
			// Another worker or a webhook got there first.
		case errors.Is(err, portdomain.ErrStorageFatal):
			return allocated, err
		default:
			w.log.Warn("allocation retry failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err),
			)
		}
	}
	return allocated, nil
}
