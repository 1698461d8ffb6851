// Package seed bootstraps the default records a fresh install needs.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/auth/password"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/config"
	plandomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan/domain"
	"gorm.io/gorm"
)

var defaultPlans = []struct {
	Code       string
	Name       string
	PricePaise int64
	Interval   plandomain.BillingInterval
}{
	{Code: "starter", Name: "Starter", PricePaise: 49900, Interval: plandomain.IntervalMonthly},
	{Code: "business", Name: "Business", PricePaise: 99900, Interval: plandomain.IntervalMonthly},
	{Code: "business-annual", Name: "Business Annual", PricePaise: 999900, Interval: plandomain.IntervalYearly},
}

// EnsureDefaultPlans inserts the stock plans when none exist.
func EnsureDefaultPlans(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&plandomain.Plan{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, plan := range defaultPlans {
			record := plandomain.Plan{
				ID:              node.Generate(),
				Code:            plan.Code,
				Name:            plan.Name,
				PricePaise:      plan.PricePaise,
				BillingInterval: plan.Interval,
				Active:          true,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureAdminUser creates the bootstrap administrator if the users table
// is empty.
func EnsureAdminUser(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table("users").Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := password.Hash(cfg.Bootstrap.AdminPassword)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.Exec(
			`INSERT INTO users (id, email, display_name, password_hash, role, created_at, updated_at)
			 VALUES (?, ?, ?, ?, 'admin', ?, ?)`,
			node.Generate(),
			cfg.Bootstrap.AdminEmail,
			"Portal Admin",
			hash,
			now,
			now,
		).Error
	})
}
