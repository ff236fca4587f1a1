package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/courierpay/courierpay/internal/clock"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
	"github.com/courierpay/courierpay/pkg/db/option"
	"github.com/courierpay/courierpay/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  repository.Repository[rulesdomain.PaymentRules]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

func NewService(p ServiceParam) rulesdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("rules.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  repository.ProvideStore[rulesdomain.PaymentRules](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, schedule rulesdomain.RateSchedule) (*rulesdomain.PaymentRules, error) {
	next := s.newVersion(schedule, 1, s.clock.Now())
	if next.HasNegativeAmounts() {
		return nil, rulesdomain.ErrNegativeRate
	}

	existing, err := s.repo.FindOne(ctx, &rulesdomain.PaymentRules{Active: true})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, rulesdomain.ErrRulesExist
	}

	if err := s.repo.Create(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info("payment rules created",
		zap.Int("version", next.Version),
		zap.Int64("weekday_rate_pence", next.WeekdayRatePence),
	)
	return next, nil
}

// UpdateRates closes the active version and writes version N+1 in one
// transaction so the schedule never has a gap or an overlap.
func (s *Service) UpdateRates(ctx context.Context, schedule rulesdomain.RateSchedule) (*rulesdomain.PaymentRules, error) {
	now := s.clock.Now()
	probe := s.newVersion(schedule, 0, now)
	if probe.HasNegativeAmounts() {
		return nil, rulesdomain.ErrNegativeRate
	}

	var created *rulesdomain.PaymentRules
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current rulesdomain.PaymentRules
		err := tx.Where("active = ?", true).Order("version DESC").First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return rulesdomain.ErrRulesNotFound
			}
			return err
		}

		if err := tx.Model(&rulesdomain.PaymentRules{}).
			Where("id = ?", current.ID).
			Updates(map[string]any{"active": false, "valid_until": now}).Error; err != nil {
			return err
		}

		next := s.newVersion(schedule, current.Version+1, now)
		if err := tx.Create(next).Error; err != nil {
			return err
		}
		created = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment rules version created",
		zap.Int("version", created.Version),
	)
	return created, nil
}

func (s *Service) Active(ctx context.Context) (*rulesdomain.PaymentRules, error) {
	current, err := s.repo.FindOne(ctx, &rulesdomain.PaymentRules{Active: true})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, rulesdomain.ErrRulesNotFound
	}
	return current, nil
}

func (s *Service) ActiveAt(ctx context.Context, at time.Time) (*rulesdomain.PaymentRules, error) {
	var row rulesdomain.PaymentRules
	err := s.db.WithContext(ctx).
		Where("valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)", at, at).
		Order("version DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rulesdomain.ErrRulesNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *Service) List(ctx context.Context) ([]*rulesdomain.PaymentRules, error) {
	return s.repo.Find(ctx, &rulesdomain.PaymentRules{}, option.WithOrderBy("version DESC"))
}

func (s *Service) newVersion(schedule rulesdomain.RateSchedule, version int, from time.Time) *rulesdomain.PaymentRules {
	return &rulesdomain.PaymentRules{
		ID:                   s.genID.Generate(),
		Version:              version,
		ValidFrom:            from,
		Active:               true,
		WeekdayRatePence:     schedule.WeekdayRatePence,
		SaturdayRatePence:    schedule.SaturdayRatePence,
		UnloadingBonusPence:  schedule.UnloadingBonusPence,
		AttendanceBonusPence: schedule.AttendanceBonusPence,
		EarlyBonusPence:      schedule.EarlyBonusPence,
		CreatedAt:            from,
	}
}
