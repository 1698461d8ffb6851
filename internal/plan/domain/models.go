package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingInterval is the cadence a plan renews on.
type BillingInterval string

const (
	IntervalMonthly   BillingInterval = "monthly"
	IntervalQuarterly BillingInterval = "quarterly"
	IntervalYearly    BillingInterval = "yearly"
)

// Plan is a purchasable service tier.
type Plan struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code            string          `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name            string          `gorm:"type:text;not null" json:"name"`
	PricePaise      int64           `gorm:"not null;default:0" json:"price_paise"`
	BillingInterval BillingInterval `gorm:"type:text;not null;default:'monthly'" json:"billing_interval"`
	Active          bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

func (i BillingInterval) Valid() bool {
	switch i {
	case IntervalMonthly, IntervalQuarterly, IntervalYearly:
		return true
	default:
		return false
	}
}
