package domain

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type CreatePortRequest struct {
	InstanceURL string `json:"instance_url"`
	PortNumber  int    `json:"port_number"`
	Status      string `json:"status"`
}

// Service orchestrates claim, link and log as one atomic unit.
type Service interface {
	// Allocate binds one AVAILABLE port to the subscription. Exactly one
	// call per subscription ever succeeds; the rest fail with
	// ErrAlreadyAssigned regardless of interleaving.
	Allocate(ctx context.Context, subscriptionID snowflake.ID) (*Port, error)
	// Reassign transfers an ASSIGNED port to another subscription on an
	// administrator's behalf.
	Reassign(ctx context.Context, portID, newSubscriptionID, actorID snowflake.ID) error
	// Release returns an ASSIGNED port to the pool on an administrator's
	// behalf, detaching its subscription.
	Release(ctx context.Context, portID, actorID snowflake.ID) error

	Create(ctx context.Context, req CreatePortRequest) (*Port, error)
	SetStatus(ctx context.Context, portID snowflake.ID, from, to Status) error
	GetByID(ctx context.Context, portID snowflake.ID) (*Port, error)
	ListByStatus(ctx context.Context, status Status) ([]Port, error)
	History(ctx context.Context, portID snowflake.ID) ([]AllocationLog, error)
}

func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
