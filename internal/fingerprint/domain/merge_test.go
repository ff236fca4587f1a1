package domain

import (
	"testing"
	"time"

	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
)

func entry(date time.Time, count int, source string) analysisdomain.DailyEntry {
	e := analysisdomain.DailyEntry{
		Date:             date,
		ConsignmentCount: count,
		RatePence:        200,
		BasePaymentPence: int64(count) * 200,
		Source:           source,
	}
	e.Recompute()
	return e
}

func TestParseMergeStrategy(t *testing.T) {
	s, err := ParseMergeStrategy("add")
	require.NoError(t, err)
	assert.Equal(t, MergeAdd, s)

	s, err = ParseMergeStrategy("")
	require.NoError(t, err)
	assert.Equal(t, MergeSmart, s)

	_, err = ParseMergeStrategy("upsert")
	assert.ErrorIs(t, err, ErrUnknownMergeStrategy)
}

func TestApplyMergeReplace(t *testing.T) {
	stored := []analysisdomain.DailyEntry{entry(day1, 20, analysisdomain.EntrySourceManual)}
	incoming := []analysisdomain.DailyEntry{entry(day1, 5, analysisdomain.EntrySourceParsed)}

	merged := ApplyMerge(MergeReplace, stored, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].ConsignmentCount)
}

func TestApplyMergeAddSumsComponents(t *testing.T) {
	stored := []analysisdomain.DailyEntry{entry(day1, 10, analysisdomain.EntrySourceParsed)}
	incoming := []analysisdomain.DailyEntry{entry(day1, 5, analysisdomain.EntrySourceParsed)}

	merged := ApplyMerge(MergeAdd, stored, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, 15, merged[0].ConsignmentCount)
	assert.Equal(t, int64(3000), merged[0].BasePaymentPence)
	assert.Equal(t, int64(3000), merged[0].ExpectedTotalPence)
}

func TestApplyMergeMaxKeepsLargerCount(t *testing.T) {
	stored := []analysisdomain.DailyEntry{entry(day1, 10, analysisdomain.EntrySourceParsed)}
	incoming := []analysisdomain.DailyEntry{entry(day1, 25, analysisdomain.EntrySourceParsed)}

	merged := ApplyMerge(MergeMax, stored, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, 25, merged[0].ConsignmentCount)
}

func TestApplyMergeSmartPreservesManualEdits(t *testing.T) {
	stored := []analysisdomain.DailyEntry{entry(day1, 12, analysisdomain.EntrySourceManual)}
	incoming := []analysisdomain.DailyEntry{entry(day1, 30, analysisdomain.EntrySourceParsed)}

	merged := ApplyMerge(MergeSmart, stored, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, 12, merged[0].ConsignmentCount)
	assert.Equal(t, analysisdomain.EntrySourceManual, merged[0].Source)
}

func TestApplyMergeSmartTakesLargerParsedCount(t *testing.T) {
	stored := []analysisdomain.DailyEntry{entry(day1, 12, analysisdomain.EntrySourceParsed)}
	incoming := []analysisdomain.DailyEntry{entry(day1, 30, analysisdomain.EntrySourceParsed)}

	merged := ApplyMerge(MergeSmart, stored, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, 30, merged[0].ConsignmentCount)
}

func TestApplyMergeKeepsDisjointDatesSorted(t *testing.T) {
	stored := []analysisdomain.DailyEntry{entry(day2, 8, analysisdomain.EntrySourceParsed)}
	incoming := []analysisdomain.DailyEntry{entry(day1, 4, analysisdomain.EntrySourceParsed)}

	merged := ApplyMerge(MergeSmart, stored, incoming)
	require.Len(t, merged, 2)
	assert.Equal(t, day1, merged[0].Date)
	assert.Equal(t, day2, merged[1].Date)
}
