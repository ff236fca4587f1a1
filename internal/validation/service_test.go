package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/config"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
)

func newTestServiceValidation() *Service {
	return NewService(config.NewStaticExtractionConfigHolder(config.DefaultExtractionConfig()))
}

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

func entryOn(date time.Time, count int, paid int64) *analysisdomain.DailyEntry {
	e := &analysisdomain.DailyEntry{
		Date:             date,
		ConsignmentCount: count,
		RatePence:        200,
		BasePaymentPence: int64(count) * 200,
		PaidPence:        paid,
	}
	e.Recompute()
	return e
}

func hasMessage(msgs []string, fragment string) bool {
	for _, m := range msgs {
		if strings.Contains(m, fragment) {
			return true
		}
	}
	return false
}

func TestValidateRulesClean(t *testing.T) {
	result := newTestServiceValidation().ValidateRules(testRules())
	assert.True(t, result.OK())
	assert.Empty(t, result.Warnings)
}

func TestValidateRulesNegativeRate(t *testing.T) {
	rules := testRules()
	rules.UnloadingBonusPence = -1

	result := newTestServiceValidation().ValidateRules(rules)
	assert.False(t, result.OK())
	assert.True(t, hasMessage(result.Errors, "negative rate"))
}

func TestValidateRulesSaturdayBelowWeekday(t *testing.T) {
	rules := testRules()
	rules.SaturdayRatePence = 150

	result := newTestServiceValidation().ValidateRules(rules)
	assert.True(t, result.OK())
	assert.True(t, hasMessage(result.Warnings, "lower than weekday rate"))
}

func TestValidateAnalysisEmptyEntries(t *testing.T) {
	result := newTestServiceValidation().ValidateAnalysis(nil, testRules(), time.Time{}, time.Time{})
	assert.False(t, result.OK())
	assert.True(t, hasMessage(result.Errors, "no daily entries"))
}

func TestValidateAnalysisDuplicateDate(t *testing.T) {
	day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	result := newTestServiceValidation().ValidateAnalysis(
		[]*analysisdomain.DailyEntry{entryOn(day, 20, 4000), entryOn(day, 15, 3000)},
		testRules(), time.Time{}, time.Time{},
	)
	assert.False(t, result.OK())
	assert.True(t, hasMessage(result.Errors, "duplicate entry for 2025-07-01"))
}

func TestValidateAnalysisNegativePaid(t *testing.T) {
	day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	result := newTestServiceValidation().ValidateAnalysis(
		[]*analysisdomain.DailyEntry{entryOn(day, 20, -100)},
		testRules(), time.Time{}, time.Time{},
	)
	assert.False(t, result.OK())
	assert.True(t, hasMessage(result.Errors, "negative paid amount"))
}

func TestValidateAnalysisWarnings(t *testing.T) {
	sunday := time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)
	thursday := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	sundayWork := entryOn(sunday, 5, 1000)
	paidWithoutWork := entryOn(tuesday, 0, 2000)
	hugeDay := entryOn(wednesday, 250, 250*200)
	overpaid := entryOn(thursday, 10, 2000+6000) // difference above warn threshold

	result := newTestServiceValidation().ValidateAnalysis(
		[]*analysisdomain.DailyEntry{sundayWork, paidWithoutWork, hugeDay, overpaid},
		testRules(), time.Time{}, time.Time{},
	)

	require.True(t, result.OK())
	assert.True(t, hasMessage(result.Warnings, "non-working day"))
	assert.True(t, hasMessage(result.Warnings, "zero consignments"))
	assert.True(t, hasMessage(result.Warnings, "exceeds 200"))
	assert.True(t, hasMessage(result.Warnings, "difference of"))
}

func TestValidateAnalysisPaidAboveDailyLimit(t *testing.T) {
	day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	entry := entryOn(day, 20, 150_000)

	result := newTestServiceValidation().ValidateAnalysis(
		[]*analysisdomain.DailyEntry{entry},
		testRules(), time.Time{}, time.Time{},
	)
	assert.True(t, hasMessage(result.Warnings, "exceeds daily limit"))
}

func TestValidateAnalysisMissingWorkingDays(t *testing.T) {
	start := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC) // Monday
	end := time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC)    // Sunday

	entries := []*analysisdomain.DailyEntry{
		entryOn(start, 20, 4000),
		entryOn(start.Add(24*time.Hour), 18, 3600),
	}

	result := newTestServiceValidation().ValidateAnalysis(entries, testRules(), start, end)
	assert.True(t, result.OK())

	// Wed-Sat are absent; the Sunday must not be flagged.
	assert.True(t, hasMessage(result.Warnings, "no entry for expected working day 2025-07-02"))
	assert.True(t, hasMessage(result.Warnings, "no entry for expected working day 2025-07-05"))
	assert.False(t, hasMessage(result.Warnings, "2025-07-06"))
}
