// Package seed bootstraps a usable rules table on first start.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/courierpay/courierpay/internal/config"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
	"gorm.io/gorm"
)

// EnsureDefaultRules inserts payment rules version 1 from the configured
// seed rates when no version exists yet. Existing rules are never touched.
func EnsureDefaultRules(db *gorm.DB, cfg config.Config) error {
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
		if err := tx.Model(&rulesdomain.PaymentRules{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		return tx.Create(&rulesdomain.PaymentRules{
			ID:                   node.Generate(),
			Version:              1,
			ValidFrom:            time.Now().UTC(),
			Active:               true,
			WeekdayRatePence:     cfg.SeedWeekdayRatePence,
			SaturdayRatePence:    cfg.SeedSaturdayRatePence,
			UnloadingBonusPence:  cfg.SeedUnloadingBonusPence,
			AttendanceBonusPence: cfg.SeedAttendanceBonusPence,
			EarlyBonusPence:      cfg.SeedEarlyBonusPence,
		}).Error
	})
}
