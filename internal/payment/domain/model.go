package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PaymentEvent is one webhook delivery from a payment provider. The
// unique (provider, provider_event_id) pair makes redelivery a no-op.
type PaymentEvent struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	Provider        string         `gorm:"type:text;not null;uniqueIndex:uq_payment_events_provider_event,priority:1"`
	ProviderEventID string         `gorm:"type:text;not null;uniqueIndex:uq_payment_events_provider_event,priority:2"`
	EventType       string         `gorm:"type:text;not null"`
	SubscriptionID  *snowflake.ID  `gorm:""`
	Payload         datatypes.JSON `gorm:"not null;default:'{}'"`
	ReceivedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaymentEvent) TableName() string { return "payment_events" }

// EventTypeSucceeded is the provider event that makes a subscription payable.
const EventTypeSucceeded = "payment.succeeded"
