// Package domain defines the port registry, the allocation audit log and
// the allocation service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle state of a port.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusAssigned  Status = "ASSIGNED"
	StatusDisabled  Status = "DISABLED"
	StatusReserved  Status = "RESERVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusAssigned, StatusDisabled, StatusReserved:
		return true
	default:
		return false
	}
}

// Port is one allocatable service instance. AssignedSubscriptionID is
// non-nil exactly when Status is ASSIGNED; the unique index on it keeps
// a subscription from ever holding two ports.
type Port struct {
	ID                     snowflake.ID  `gorm:"primaryKey" json:"id"`
	InstanceURL            string        `gorm:"type:text;not null" json:"instance_url"`
	PortNumber             int           `gorm:"not null" json:"port_number"`
	Status                 Status        `gorm:"type:text;not null;default:'AVAILABLE'" json:"status"`
	AssignedSubscriptionID *snowflake.ID `gorm:"uniqueIndex:uq_ports_assigned_subscription" json:"assigned_subscription_id,omitempty"`
	AssignedAt             *time.Time    `gorm:"" json:"assigned_at,omitempty"`
	CreatedAt              time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_ports_status_created,priority:2" json:"created_at"`
	UpdatedAt              time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Port) TableName() string { return "ports" }

// Action is the kind of state change recorded in the allocation log.
type Action string

const (
	ActionAssigned   Action = "ASSIGNED"
	ActionReassigned Action = "REASSIGNED"
	ActionReleased   Action = "RELEASED"
)

// AllocationLog is an immutable audit record of one port state change.
// PerformedBy is nil for system-triggered assignment and set to the
// administrator's id for reassignment and release.
type AllocationLog struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	PortID         snowflake.ID  `gorm:"not null;index:idx_port_allocation_logs_port,priority:1" json:"port_id"`
	SubscriptionID snowflake.ID  `gorm:"not null" json:"subscription_id"`
	Action         Action        `gorm:"type:text;not null" json:"action"`
	PerformedBy    *snowflake.ID `gorm:"" json:"performed_by,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_port_allocation_logs_port,priority:2" json:"created_at"`
}

// TableName sets the database table name.
func (AllocationLog) TableName() string { return "port_allocation_logs" }
