package migration

import (
	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/config"
	fpdomain "github.com/courierpay/courierpay/internal/fingerprint/domain"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
	"github.com/courierpay/courierpay/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&rulesdomain.PaymentRules{},
				&analysisdomain.Analysis{},
				&analysisdomain.DailyEntry{},
				&fpdomain.StoredFingerprint{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultRules(conn, cfg)
	}),
)
