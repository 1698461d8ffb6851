package domain

import (
	"context"
	"errors"
)

// Result reports what a webhook delivery did.
type Result struct {
	Duplicate     bool
	PortAllocated bool
	PortPending   bool
}

type Service interface {
	// IngestWebhook records a provider event exactly once. A first-seen
	// payment.succeeded activates the subscription and attempts port
	// allocation; an exhausted pool leaves the subscription pending
	// rather than failing the delivery.
	IngestWebhook(ctx context.Context, provider string, payload []byte) (*Result, error)
}

var (
	ErrInvalidProvider     = errors.New("invalid_provider")
	ErrInvalidPayload      = errors.New("invalid_payload")
	ErrInvalidEvent        = errors.New("invalid_event")
	ErrInvalidSubscription = errors.New("invalid_subscription")
)
