package domain

import (
	"context"
	"errors"
	"time"
)

// Service manages the versioned payment rules lifecycle.
type Service interface {
	// Create inserts the first version when none exists.
	Create(ctx context.Context, schedule RateSchedule) (*PaymentRules, error)
	// UpdateRates deactivates the active version and inserts the next one.
	UpdateRates(ctx context.Context, schedule RateSchedule) (*PaymentRules, error)
	// Active returns the currently active version.
	Active(ctx context.Context) (*PaymentRules, error)
	// ActiveAt returns the version valid at the given instant.
	ActiveAt(ctx context.Context, at time.Time) (*PaymentRules, error)
	// List returns all versions, newest first.
	List(ctx context.Context) ([]*PaymentRules, error)
}

var (
	ErrNegativeRate  = errors.New("negative_rate")
	ErrRulesNotFound = errors.New("payment_rules_not_found")
	ErrRulesExist    = errors.New("payment_rules_exist")
)
