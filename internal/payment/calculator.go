// Package payment computes expected pay from consignment counts and a rules
// version. Everything here is a pure function over its inputs; callers may
// invoke it concurrently without locking.
package payment

import (
	"time"

	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/money"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
)

// Bonuses holds the per-day bonus amounts after day-of-week exclusions.
type Bonuses struct {
	Unloading  money.Money `json:"unloading"`
	Attendance money.Money `json:"attendance"`
	Early      money.Money `json:"early"`
}

// Total sums the three bonuses.
func (b Bonuses) Total() money.Money {
	return b.Unloading.Add(b.Attendance).Add(b.Early)
}

// RateForDay returns the per-consignment rate: the Saturday rate on Saturday,
// the weekday rate otherwise. Sunday carries no special rate; it is excluded
// from working days in the stats instead.
func RateForDay(rules rulesdomain.PaymentRules, day time.Weekday) money.Money {
	if day == time.Saturday {
		return rules.SaturdayRate()
	}
	return rules.WeekdayRate()
}

// BonusesForDay applies the day-of-week exclusions: the unloading bonus is
// zero on Sunday and Monday; attendance and early bonuses apply Monday-Friday
// only. Results are never negative for valid rules.
func BonusesForDay(rules rulesdomain.PaymentRules, day time.Weekday) Bonuses {
	var b Bonuses
	if day != time.Sunday && day != time.Monday {
		b.Unloading = rules.UnloadingBonus()
	}
	if day >= time.Monday && day <= time.Friday {
		b.Attendance = rules.AttendanceBonus()
		b.Early = rules.EarlyBonus()
	}
	return b
}

// CalculateDaily builds a DailyEntry for one day:
// base = rate x consignments, expected = base + pickups + bonuses,
// difference = paid - expected.
func CalculateDaily(
	rules rulesdomain.PaymentRules,
	date time.Time,
	consignments money.ConsignmentCount,
	pickupCount int,
	pickupTotal money.Money,
	paid money.Money,
) *analysisdomain.DailyEntry {
	day := date.UTC().Truncate(24 * time.Hour)
	rate := RateForDay(rules, day.Weekday())
	bonuses := BonusesForDay(rules, day.Weekday())
	base := rate.MulInt(int64(consignments.Int()))

	entry := &analysisdomain.DailyEntry{
		Date:                 day,
		ConsignmentCount:     consignments.Int(),
		RatePence:            rate.Pence(),
		BasePaymentPence:     base.Pence(),
		PickupCount:          pickupCount,
		PickupTotalPence:     pickupTotal.Pence(),
		UnloadingBonusPence:  bonuses.Unloading.Pence(),
		AttendanceBonusPence: bonuses.Attendance.Pence(),
		EarlyBonusPence:      bonuses.Early.Pence(),
		PaidPence:            paid.Pence(),
		Source:               analysisdomain.EntrySourceParsed,
	}
	entry.Recompute()
	return entry
}

// Stats aggregates a set of daily entries over working days (Sunday excluded).
type Stats struct {
	WorkingDays       int         `json:"working_days"`
	TotalConsignments int         `json:"total_consignments"`
	BaseTotal         money.Money `json:"base_total"`
	BonusTotal        money.Money `json:"bonus_total"`
	PickupTotal       money.Money `json:"pickup_total"`
	ExpectedTotal     money.Money `json:"expected_total"`
	PaidTotal         money.Money `json:"paid_total"`
	Difference        money.Money `json:"difference"`

	AvgConsignmentsPerDay float64     `json:"avg_consignments_per_day"`
	AvgExpectedPerDay     money.Money `json:"avg_expected_per_day"`
}

// WeeklyStats filters to working days and totals the component payments.
// Empty input yields all-zero stats.
func WeeklyStats(entries []*analysisdomain.DailyEntry) Stats {
	var stats Stats
	var basePence, bonusPence, pickupPence, expectedPence, paidPence int64

	for _, entry := range entries {
		if entry.Date.Weekday() == time.Sunday {
			continue
		}
		stats.WorkingDays++
		stats.TotalConsignments += entry.ConsignmentCount
		basePence += entry.BasePaymentPence
		bonusPence += entry.BonusTotalPence()
		pickupPence += entry.PickupTotalPence
		expectedPence += entry.ExpectedTotalPence
		paidPence += entry.PaidPence
	}

	stats.BaseTotal = money.FromPence(basePence)
	stats.BonusTotal = money.FromPence(bonusPence)
	stats.PickupTotal = money.FromPence(pickupPence)
	stats.ExpectedTotal = money.FromPence(expectedPence)
	stats.PaidTotal = money.FromPence(paidPence)
	stats.Difference = money.FromPence(paidPence - expectedPence)

	if stats.WorkingDays > 0 {
		stats.AvgConsignmentsPerDay = float64(stats.TotalConsignments) / float64(stats.WorkingDays)
		stats.AvgExpectedPerDay = money.FromPence(expectedPence / int64(stats.WorkingDays))
	}
	return stats
}
