package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Registry stores port records and answers eligibility queries. All
// methods accept the caller's db handle so they compose into a single
// transaction.
type Registry interface {
	Insert(ctx context.Context, db *gorm.DB, port *Port) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Port, error)
	// FindAvailable returns the oldest-created AVAILABLE port, or nil
	// when the pool is exhausted.
	FindAvailable(ctx context.Context, db *gorm.DB) (*Port, error)
	// Claim moves a port from AVAILABLE to ASSIGNED if and only if it is
	// still AVAILABLE at commit time. Returns false when the port was
	// claimed concurrently.
	Claim(ctx context.Context, db *gorm.DB, portID, subscriptionID snowflake.ID, at time.Time) (bool, error)
	// Release moves a port from ASSIGNED back to AVAILABLE, clearing the
	// subscription link. Returns false when the port was not ASSIGNED.
	Release(ctx context.Context, db *gorm.DB, portID snowflake.ID, at time.Time) (bool, error)
	// Repoint moves an ASSIGNED port from one subscription to another.
	// Returns false when the port is no longer assigned to fromSubID.
	Repoint(ctx context.Context, db *gorm.DB, portID, fromSubID, toSubID snowflake.ID, at time.Time) (bool, error)
	// ListByStatus returns ports in creation order. An empty status
	// matches every port.
	ListByStatus(ctx context.Context, db *gorm.DB, status Status) ([]Port, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, portID snowflake.ID, from, to Status) (bool, error)
	CountByStatus(ctx context.Context, db *gorm.DB) (map[Status]int, error)
}

// LogRepository is the append-only allocation audit trail.
type LogRepository interface {
	Append(ctx context.Context, db *gorm.DB, entry *AllocationLog) error
	// FindByPort returns all entries for a port in chronological order.
	FindByPort(ctx context.Context, db *gorm.DB, portID snowflake.ID) ([]AllocationLog, error)
}
