package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Lead is an inbound sales inquiry captured from the public site.
type Lead struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null;default:''" json:"email,omitempty"`
	Phone     string       `gorm:"type:text;not null;default:''" json:"phone,omitempty"`
	Source    string       `gorm:"type:text;not null;default:''" json:"source,omitempty"`
	Note      string       `gorm:"type:text;not null;default:''" json:"note,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Lead) TableName() string { return "leads" }
