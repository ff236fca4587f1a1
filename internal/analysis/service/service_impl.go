package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/clock"
	"github.com/courierpay/courierpay/internal/money"
	"github.com/courierpay/courierpay/pkg/db/option"
	"github.com/courierpay/courierpay/pkg/repository"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	analysisRepo repository.Repository[analysisdomain.Analysis]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

func NewService(p ServiceParam) analysisdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("analysis.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		analysisRepo: repository.ProvideStore[analysisdomain.Analysis](p.DB),
	}
}

func (s *Service) Save(ctx context.Context, analysis *analysisdomain.Analysis, entries []*analysisdomain.DailyEntry) (*analysisdomain.Analysis, error) {
	if len(entries) == 0 {
		return nil, analysisdomain.ErrNoEntries
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		key := entry.Date.UTC().Format(time.DateOnly)
		if seen[key] {
			return nil, analysisdomain.ErrDuplicateEntryDate
		}
		seen[key] = true
	}

	now := s.clock.Now()
	if analysis.ID == 0 {
		analysis.ID = s.genID.Generate()
	}
	if analysis.Reference == "" {
		analysis.Reference = newReference(now)
	}
	analysis.CreatedAt = now
	analysis.UpdatedAt = now

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(analysis).Error; err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.ID == 0 {
				entry.ID = s.genID.Generate()
			}
			entry.AnalysisID = analysis.ID
			entry.Recompute()
			entry.CreatedAt = now
			entry.UpdatedAt = now
		}
		return tx.Create(entries).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("analysis saved",
		zap.String("reference", analysis.Reference),
		zap.String("user_id", analysis.UserID),
		zap.Int("entries", len(entries)),
	)
	return analysis, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]*analysisdomain.Analysis, error) {
	return s.analysisRepo.Find(ctx, &analysisdomain.Analysis{UserID: userID},
		option.WithOrderBy("created_at DESC"),
		option.WithLimit(limit),
	)
}

func (s *Service) Get(ctx context.Context, reference string) (*analysisdomain.Analysis, []*analysisdomain.DailyEntry, error) {
	analysis, err := s.analysisRepo.FindOne(ctx, &analysisdomain.Analysis{Reference: reference})
	if err != nil {
		return nil, nil, err
	}
	if analysis == nil {
		return nil, nil, analysisdomain.ErrAnalysisNotFound
	}

	var entries []*analysisdomain.DailyEntry
	err = s.db.WithContext(ctx).
		Where("analysis_id = ?", analysis.ID).
		Order("date ASC").
		Find(&entries).Error
	if err != nil {
		return nil, nil, err
	}
	return analysis, entries, nil
}

func (s *Service) UpdateEntryPaidAmount(ctx context.Context, reference string, date time.Time, paidPence int64) (*analysisdomain.DailyEntry, error) {
	return s.mutateEntry(ctx, reference, date, func(entry *analysisdomain.DailyEntry) error {
		return entry.UpdatePaidAmount(money.FromPence(paidPence))
	})
}

func (s *Service) UpdateEntryPickupData(ctx context.Context, reference string, date time.Time, pickupCount int, pickupTotalPence int64) (*analysisdomain.DailyEntry, error) {
	return s.mutateEntry(ctx, reference, date, func(entry *analysisdomain.DailyEntry) error {
		return entry.UpdatePickupData(pickupCount, money.FromPence(pickupTotalPence))
	})
}

// mutateEntry applies fn to the entry inside the transaction so the expected
// total and difference can never be persisted stale.
func (s *Service) mutateEntry(ctx context.Context, reference string, date time.Time, fn func(*analysisdomain.DailyEntry) error) (*analysisdomain.DailyEntry, error) {
	var updated *analysisdomain.DailyEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var analysis analysisdomain.Analysis
		if err := tx.Where("reference = ?", reference).First(&analysis).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return analysisdomain.ErrAnalysisNotFound
			}
			return err
		}

		var entry analysisdomain.DailyEntry
		day := date.UTC().Truncate(24 * time.Hour)
		err := tx.Where("analysis_id = ? AND date = ?", analysis.ID, day).First(&entry).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return analysisdomain.ErrEntryNotFound
			}
			return err
		}

		if err := fn(&entry); err != nil {
			return err
		}
		entry.UpdatedAt = s.clock.Now()

		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		updated = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func newReference(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
