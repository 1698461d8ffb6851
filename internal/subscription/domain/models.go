package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus is the lifecycle state of a paid plan term.
type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
	StatusExpired   SubscriptionStatus = "expired"
)

// Subscription is a customer's plan term. AssignedPortID is owned by the
// port allocation service; nothing else writes it.
type Subscription struct {
	ID             snowflake.ID       `gorm:"primaryKey" json:"id"`
	CustomerID     snowflake.ID       `gorm:"not null;index" json:"customer_id"`
	PlanID         snowflake.ID       `gorm:"not null" json:"plan_id"`
	Status         SubscriptionStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	AssignedPortID *snowflake.ID      `gorm:"" json:"assigned_port_id,omitempty"`
	StartsAt       *time.Time         `gorm:"" json:"starts_at,omitempty"`
	EndsAt         *time.Time         `gorm:"" json:"ends_at,omitempty"`
	CreatedAt      time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
