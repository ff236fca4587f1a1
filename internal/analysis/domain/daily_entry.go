package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/courierpay/courierpay/internal/money"
)

// EntryStatus classifies a day's payment against its expected total.
type EntryStatus string

const (
	EntryStatusBalanced  EntryStatus = "balanced"
	EntryStatusOverpaid  EntryStatus = "overpaid"
	EntryStatusUnderpaid EntryStatus = "underpaid"
)

// balancedTolerancePence is the absolute difference, in pence, still treated
// as balanced.
const balancedTolerancePence = 1

// ErrNegativePaidAmount rejects paid amounts below zero.
var ErrNegativePaidAmount = errors.New("negative_paid_amount")

// DailyEntry is a single day's computed payment record, identified by
// (AnalysisID, Date). All amounts are pence. ExpectedTotalPence and
// DifferencePence are derived and recomputed on every mutation; callers must
// go through UpdatePaidAmount / UpdatePickupData rather than assigning fields.
type DailyEntry struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	AnalysisID snowflake.ID `json:"analysis_id" gorm:"not null;index;uniqueIndex:ux_entry_analysis_date"`
	Date       time.Time    `json:"date" gorm:"not null;uniqueIndex:ux_entry_analysis_date"`

	ConsignmentCount int   `json:"consignment_count" gorm:"not null"`
	RatePence        int64 `json:"rate_pence" gorm:"not null"`
	BasePaymentPence int64 `json:"base_payment_pence" gorm:"not null"`

	PickupCount      int   `json:"pickup_count" gorm:"not null;default:0"`
	PickupTotalPence int64 `json:"pickup_total_pence" gorm:"not null;default:0"`

	UnloadingBonusPence  int64 `json:"unloading_bonus_pence" gorm:"not null;default:0"`
	AttendanceBonusPence int64 `json:"attendance_bonus_pence" gorm:"not null;default:0"`
	EarlyBonusPence      int64 `json:"early_bonus_pence" gorm:"not null;default:0"`

	PaidPence          int64 `json:"paid_pence" gorm:"not null;default:0"`
	ExpectedTotalPence int64 `json:"expected_total_pence" gorm:"not null"`
	DifferencePence    int64 `json:"difference_pence" gorm:"not null"`

	Source    string    `json:"source" gorm:"type:text;not null;default:'parsed'"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DailyEntry) TableName() string { return "daily_entries" }

// Entry sources.
const (
	EntrySourceParsed = "parsed"
	EntrySourceManual = "manual"
)

// Recompute derives ExpectedTotalPence and DifferencePence from the component
// payments. It is the only place the invariant lives.
func (e *DailyEntry) Recompute() {
	e.ExpectedTotalPence = e.BasePaymentPence +
		e.PickupTotalPence +
		e.UnloadingBonusPence +
		e.AttendanceBonusPence +
		e.EarlyBonusPence
	e.DifferencePence = e.PaidPence - e.ExpectedTotalPence
}

// UpdatePaidAmount sets the paid amount and recomputes derived fields.
func (e *DailyEntry) UpdatePaidAmount(paid money.Money) error {
	if paid.IsNegative() {
		return ErrNegativePaidAmount
	}
	e.PaidPence = paid.Pence()
	e.Recompute()
	return nil
}

// UpdatePickupData sets pickup count and total and recomputes derived fields.
func (e *DailyEntry) UpdatePickupData(count int, total money.Money) error {
	if count < 0 {
		return money.ErrInvalidCount
	}
	e.PickupCount = count
	e.PickupTotalPence = total.Pence()
	e.Recompute()
	return nil
}

// Status derives the payment status from the difference at the default
// tolerance.
func (e *DailyEntry) Status() EntryStatus {
	return e.StatusWithin(balancedTolerancePence)
}

// StatusWithin derives the payment status treating absolute differences up to
// tolerancePence as balanced.
func (e *DailyEntry) StatusWithin(tolerancePence int64) EntryStatus {
	switch {
	case e.DifferencePence > tolerancePence:
		return EntryStatusOverpaid
	case e.DifferencePence < -tolerancePence:
		return EntryStatusUnderpaid
	default:
		return EntryStatusBalanced
	}
}

// ExpectedTotal returns the expected total as Money.
func (e *DailyEntry) ExpectedTotal() money.Money { return money.FromPence(e.ExpectedTotalPence) }

// Difference returns paid minus expected as Money; negative means underpaid.
func (e *DailyEntry) Difference() money.Money { return money.FromPence(e.DifferencePence) }

// BonusTotalPence is the sum of the three bonus amounts.
func (e *DailyEntry) BonusTotalPence() int64 {
	return e.UnloadingBonusPence + e.AttendanceBonusPence + e.EarlyBonusPence
}

type dailyEntryJSON DailyEntry

// UnmarshalJSON decodes an entry and re-derives the computed fields so a
// round-trip (or hand-edited payload) always satisfies the invariant.
func (e *DailyEntry) UnmarshalJSON(data []byte) error {
	var raw dailyEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = DailyEntry(raw)
	e.Recompute()
	return nil
}
