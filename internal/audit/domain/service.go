package domain

import (
	"context"

	"gorm.io/gorm"
)

// Entry describes one action to record.
type Entry struct {
	ActorType  ActorType
	ActorID    *string
	Action     string
	TargetType string
	TargetID   *string
	Metadata   map[string]any
}

// Service records audit entries, optionally inside a caller's transaction.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
