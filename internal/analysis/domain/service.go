package domain

import (
	"context"
	"errors"
	"time"
)

// Service persists analyses and their daily entries.
type Service interface {
	// Save stores an analysis and its entries in one transaction.
	Save(ctx context.Context, analysis *Analysis, entries []*DailyEntry) (*Analysis, error)
	// ListForUser returns a user's analyses, newest first.
	ListForUser(ctx context.Context, userID string, limit int) ([]*Analysis, error)
	// Get returns an analysis and its entries by reference.
	Get(ctx context.Context, reference string) (*Analysis, []*DailyEntry, error)
	// UpdateEntryPaidAmount mutates one entry's paid amount, recomputing
	// expected total and difference atomically.
	UpdateEntryPaidAmount(ctx context.Context, reference string, date time.Time, paidPence int64) (*DailyEntry, error)
	// UpdateEntryPickupData mutates one entry's pickup data atomically.
	UpdateEntryPickupData(ctx context.Context, reference string, date time.Time, pickupCount int, pickupTotalPence int64) (*DailyEntry, error)
}

var (
	ErrAnalysisNotFound   = errors.New("analysis_not_found")
	ErrEntryNotFound      = errors.New("entry_not_found")
	ErrDuplicateEntryDate = errors.New("duplicate_entry_date")
	ErrNoEntries          = errors.New("no_daily_entries")
)
