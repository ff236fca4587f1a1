package payment

import (
	"testing"
	"time"

	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/money"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() rulesdomain.PaymentRules {
	return rulesdomain.PaymentRules{
		Version:              1,
		WeekdayRatePence:     200,
		SaturdayRatePence:    250,
		UnloadingBonusPence:  3000,
		AttendanceBonusPence: 2500,
		EarlyBonusPence:      5000,
	}
}

func TestBonusExclusionsByWeekday(t *testing.T) {
	rules := testRules()
	for day := time.Sunday; day <= time.Saturday; day++ {
		b := BonusesForDay(rules, day)

		wantUnloadingZero := day == time.Sunday || day == time.Monday
		assert.Equal(t, wantUnloadingZero, b.Unloading.IsZero(), "unloading on %s", day)

		wantWeekdayBonuses := day >= time.Monday && day <= time.Friday
		assert.Equal(t, !wantWeekdayBonuses, b.Attendance.IsZero(), "attendance on %s", day)
		assert.Equal(t, !wantWeekdayBonuses, b.Early.IsZero(), "early on %s", day)
	}
}

func TestRateForDay(t *testing.T) {
	rules := testRules()
	assert.Equal(t, int64(250), RateForDay(rules, time.Saturday).Pence())
	assert.Equal(t, int64(200), RateForDay(rules, time.Sunday).Pence())
	assert.Equal(t, int64(200), RateForDay(rules, time.Wednesday).Pence())
}

func TestCalculateDailyTuesday(t *testing.T) {
	// 2025-07-01 is a Tuesday.
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	count, err := money.NewConsignmentCount(20)
	require.NoError(t, err)

	entry := CalculateDaily(testRules(), date, count, 0, money.Zero, money.Zero)

	assert.Equal(t, int64(4000), entry.BasePaymentPence)
	assert.Equal(t, int64(3000), entry.UnloadingBonusPence)
	assert.Equal(t, int64(2500), entry.AttendanceBonusPence)
	assert.Equal(t, int64(5000), entry.EarlyBonusPence)
	assert.Equal(t, int64(14500), entry.ExpectedTotalPence)
	assert.Equal(t, int64(-14500), entry.DifferencePence)
}

func TestCalculateDailyMondayExcludesUnloading(t *testing.T) {
	// 2025-06-30 is a Monday.
	date := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	count, err := money.NewConsignmentCount(20)
	require.NoError(t, err)

	entry := CalculateDaily(testRules(), date, count, 0, money.Zero, money.Zero)

	assert.Equal(t, int64(0), entry.UnloadingBonusPence)
	assert.Equal(t, int64(2500), entry.AttendanceBonusPence)
	assert.Equal(t, int64(5000), entry.EarlyBonusPence)
	assert.Equal(t, int64(11500), entry.ExpectedTotalPence)
}

func TestCalculateDailyExpectedTotalInvariant(t *testing.T) {
	date := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC) // Saturday
	count, err := money.NewConsignmentCount(15)
	require.NoError(t, err)

	entry := CalculateDaily(testRules(), date, count, 2, money.FromPence(1200), money.FromPence(9000))

	expected := entry.BasePaymentPence +
		entry.PickupTotalPence +
		entry.UnloadingBonusPence +
		entry.AttendanceBonusPence +
		entry.EarlyBonusPence
	assert.Equal(t, expected, entry.ExpectedTotalPence)
	assert.Equal(t, entry.PaidPence-expected, entry.DifferencePence)
	assert.Equal(t, int64(250*15), entry.BasePaymentPence)
}

func TestWeeklyStatsExcludesSunday(t *testing.T) {
	tuesday := &analysisdomain.DailyEntry{
		Date:               time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		ConsignmentCount:   20,
		BasePaymentPence:   4000,
		ExpectedTotalPence: 14500,
		PaidPence:          14000,
	}
	sunday := &analysisdomain.DailyEntry{
		Date:               time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC),
		ConsignmentCount:   5,
		BasePaymentPence:   1000,
		ExpectedTotalPence: 1000,
	}

	stats := WeeklyStats([]*analysisdomain.DailyEntry{tuesday, sunday})

	assert.Equal(t, 1, stats.WorkingDays)
	assert.Equal(t, 20, stats.TotalConsignments)
	assert.Equal(t, int64(14500), stats.ExpectedTotal.Pence())
	assert.Equal(t, int64(-500), stats.Difference.Pence())
	assert.InDelta(t, 20.0, stats.AvgConsignmentsPerDay, 0.001)
}

func TestWeeklyStatsEmpty(t *testing.T) {
	stats := WeeklyStats(nil)
	assert.Zero(t, stats.WorkingDays)
	assert.True(t, stats.ExpectedTotal.IsZero())
	assert.Zero(t, stats.AvgConsignmentsPerDay)
}
