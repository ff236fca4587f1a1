// Package domain contains persistence models for payment rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/courierpay/courierpay/internal/money"
)

// PaymentRules is one immutable version of the rate and bonus schedule. Rates
// are stored in pence. Edits never mutate a row; they deactivate the current
// version and insert the next one.
type PaymentRules struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	Version    int          `json:"version" gorm:"not null;uniqueIndex"`
	ValidFrom  time.Time    `json:"valid_from" gorm:"not null"`
	ValidUntil *time.Time   `json:"valid_until,omitempty" gorm:""`
	Active     bool         `json:"active" gorm:"not null;index"`

	WeekdayRatePence  int64 `json:"weekday_rate_pence" gorm:"not null"`
	SaturdayRatePence int64 `json:"saturday_rate_pence" gorm:"not null"`

	UnloadingBonusPence  int64 `json:"unloading_bonus_pence" gorm:"not null"`
	AttendanceBonusPence int64 `json:"attendance_bonus_pence" gorm:"not null"`
	EarlyBonusPence      int64 `json:"early_bonus_pence" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaymentRules) TableName() string { return "payment_rules" }

// WeekdayRate returns the weekday rate as Money.
func (r PaymentRules) WeekdayRate() money.Money { return money.FromPence(r.WeekdayRatePence) }

// SaturdayRate returns the Saturday rate as Money.
func (r PaymentRules) SaturdayRate() money.Money { return money.FromPence(r.SaturdayRatePence) }

// UnloadingBonus returns the unloading bonus as Money.
func (r PaymentRules) UnloadingBonus() money.Money { return money.FromPence(r.UnloadingBonusPence) }

// AttendanceBonus returns the attendance bonus as Money.
func (r PaymentRules) AttendanceBonus() money.Money { return money.FromPence(r.AttendanceBonusPence) }

// EarlyBonus returns the early-start bonus as Money.
func (r PaymentRules) EarlyBonus() money.Money { return money.FromPence(r.EarlyBonusPence) }

// HasNegativeAmounts reports whether any rate or bonus is below zero.
func (r PaymentRules) HasNegativeAmounts() bool {
	return r.WeekdayRatePence < 0 ||
		r.SaturdayRatePence < 0 ||
		r.UnloadingBonusPence < 0 ||
		r.AttendanceBonusPence < 0 ||
		r.EarlyBonusPence < 0
}

// RateSchedule is the caller-supplied rate set for a new rules version.
type RateSchedule struct {
	WeekdayRatePence     int64 `json:"weekday_rate_pence"`
	SaturdayRatePence    int64 `json:"saturday_rate_pence"`
	UnloadingBonusPence  int64 `json:"unloading_bonus_pence"`
	AttendanceBonusPence int64 `json:"attendance_bonus_pence"`
	EarlyBonusPence      int64 `json:"early_bonus_pence"`
}
