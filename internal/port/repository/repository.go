// Package repository implements the port registry and allocation log on
// gorm. Claim, Release and Repoint are conditional updates: zero rows
// affected means the precondition no longer held and the caller lost a
// race.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
	"gorm.io/gorm"
)

type Registry struct{}

func ProvideRegistry() portdomain.Registry {
	return &Registry{}
}

func (r *Registry) Insert(ctx context.Context, db *gorm.DB, port *portdomain.Port) error {
	return db.WithContext(ctx).Create(port).Error
}

func (r *Registry) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*portdomain.Port, error) {
	var port portdomain.Port
	if err := db.WithContext(ctx).First(&port, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &port, nil
}

func (r *Registry) FindAvailable(ctx context.Context, db *gorm.DB) (*portdomain.Port, error) {
	var port portdomain.Port
	err := db.WithContext(ctx).
		Where("status = ?", portdomain.StatusAvailable).
		Order("created_at ASC, id ASC").
		First(&port).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &port, nil
}

func (r *Registry) Claim(ctx context.Context, db *gorm.DB, portID, subscriptionID snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE ports
		 SET status = ?, assigned_subscription_id = ?, assigned_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		portdomain.StatusAssigned,
		subscriptionID,
		at,
		at,
		portID,
		portdomain.StatusAvailable,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Registry) Release(ctx context.Context, db *gorm.DB, portID snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE ports
		 SET status = ?, assigned_subscription_id = NULL, assigned_at = NULL, updated_at = ?
		 WHERE id = ? AND status = ?`,
		portdomain.StatusAvailable,
		at,
		portID,
		portdomain.StatusAssigned,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Registry) Repoint(ctx context.Context, db *gorm.DB, portID, fromSubID, toSubID snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE ports
		 SET assigned_subscription_id = ?, assigned_at = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND assigned_subscription_id = ?`,
		toSubID,
		at,
		at,
		portID,
		portdomain.StatusAssigned,
		fromSubID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Registry) ListByStatus(ctx context.Context, db *gorm.DB, status portdomain.Status) ([]portdomain.Port, error) {
	var ports []portdomain.Port
	query := db.WithContext(ctx).Order("created_at ASC, id ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&ports).Error; err != nil {
		return nil, err
	}
	return ports, nil
}

func (r *Registry) UpdateStatus(ctx context.Context, db *gorm.DB, portID snowflake.ID, from, to portdomain.Status) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE ports SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		time.Now().UTC(),
		portID,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Registry) CountByStatus(ctx context.Context, db *gorm.DB) (map[portdomain.Status]int, error) {
	var rows []struct {
		Status portdomain.Status
		Count  int
	}
	if err := db.WithContext(ctx).
		Model(&portdomain.Port{}).
		Select("status, COUNT(1) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[portdomain.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

type Log struct{}

func ProvideLog() portdomain.LogRepository {
	return &Log{}
}

func (l *Log) Append(ctx context.Context, db *gorm.DB, entry *portdomain.AllocationLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (l *Log) FindByPort(ctx context.Context, db *gorm.DB, portID snowflake.ID) ([]portdomain.AllocationLog, error) {
	var entries []portdomain.AllocationLog
	if err := db.WithContext(ctx).
		Where("port_id = ?", portID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
