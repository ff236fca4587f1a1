// Package repository persists fingerprint history in the database, with a
// best-effort redis copy per user. The redis copy is a fallback: when the
// database read fails, the last cached history is served instead, so
// duplicate detection keeps working through a database outage.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	fpdomain "github.com/courierpay/courierpay/internal/fingerprint/domain"
	"github.com/courierpay/courierpay/pkg/db/option"
	pkgrepository "github.com/courierpay/courierpay/pkg/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const historyTTL = 7 * 24 * time.Hour

// Repository stores and queries fingerprint history.
type Repository interface {
	Save(ctx context.Context, fp *fpdomain.StoredFingerprint) error
	// History returns the user's stored fingerprints, newest first.
	History(ctx context.Context, userID string, limit int) ([]*fpdomain.StoredFingerprint, error)
}

type store struct {
	log   *zap.Logger
	repo  pkgrepository.Repository[fpdomain.StoredFingerprint]
	cache redis.UniversalClient
}

type RepositoryParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Cache redis.UniversalClient `optional:"true"`
}

func NewRepository(p RepositoryParam) Repository {
	return &store{
		log:   p.Log.Named("fingerprint.repository"),
		repo:  pkgrepository.ProvideStore[fpdomain.StoredFingerprint](p.DB),
		cache: p.Cache,
	}
}

func (s *store) Save(ctx context.Context, fp *fpdomain.StoredFingerprint) error {
	if err := s.repo.Create(ctx, fp); err != nil {
		return err
	}
	s.refreshCache(ctx, fp.UserID)
	return nil
}

func (s *store) History(ctx context.Context, userID string, limit int) ([]*fpdomain.StoredFingerprint, error) {
	history, err := s.query(ctx, userID, limit)
	if err != nil {
		if cached, ok := s.cachedHistory(ctx, userID); ok {
			s.log.Warn("serving fingerprint history from cache", zap.Error(err))
			return cached, nil
		}
		return nil, err
	}
	s.writeCache(ctx, userID, history)
	return history, nil
}

func (s *store) query(ctx context.Context, userID string, limit int) ([]*fpdomain.StoredFingerprint, error) {
	return s.repo.Find(ctx,
		&fpdomain.StoredFingerprint{UserID: userID},
		option.WithOrderBy("created_at DESC, id DESC"),
		option.WithLimit(limit),
	)
}

func historyKey(userID string) string {
	return fmt.Sprintf("fingerprint:history:%s", userID)
}

func (s *store) refreshCache(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	history, err := s.query(ctx, userID, 0)
	if err != nil {
		s.log.Warn("fingerprint history cache refresh failed", zap.Error(err))
		return
	}
	s.writeCache(ctx, userID, history)
}

func (s *store) writeCache(ctx context.Context, userID string, history []*fpdomain.StoredFingerprint) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(history)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, historyKey(userID), payload, historyTTL).Err(); err != nil {
		s.log.Warn("fingerprint history cache write failed", zap.Error(err))
	}
}

func (s *store) cachedHistory(ctx context.Context, userID string) ([]*fpdomain.StoredFingerprint, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, historyKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("fingerprint history cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var history []*fpdomain.StoredFingerprint
	if err := json.Unmarshal(payload, &history); err != nil {
		return nil, false
	}
	return history, true
}
