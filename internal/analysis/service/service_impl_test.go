package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/clock"
)

func newTestService(t *testing.T) analysisdomain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&analysisdomain.Analysis{}, &analysisdomain.DailyEntry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)),
	})
}

func testEntry(day int, count int) *analysisdomain.DailyEntry {
	return &analysisdomain.DailyEntry{
		Date:             time.Date(2025, 7, day, 0, 0, 0, 0, time.UTC),
		ConsignmentCount: count,
		RatePence:        200,
		BasePaymentPence: int64(count) * 200,
		PaidPence:        int64(count) * 200,
		Source:           analysisdomain.EntrySourceParsed,
	}
}

func testAnalysis() *analysisdomain.Analysis {
	return &analysisdomain.Analysis{
		UserID:      "user-1",
		PeriodStart: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestSaveAssignsReferenceAndRecomputes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	entry := testEntry(1, 20)
	entry.ExpectedTotalPence = 999 // stale, must be rederived on save

	saved, err := svc.Save(ctx, testAnalysis(), []*analysisdomain.DailyEntry{entry})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.Reference)
	assert.NotZero(t, saved.ID)

	got, entries, err := svc.Get(ctx, saved.Reference)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4000), entries[0].ExpectedTotalPence)
	assert.Equal(t, int64(0), entries[0].DifferencePence)
}

func TestSaveRejectsEmptyEntries(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Save(context.Background(), testAnalysis(), nil)
	assert.ErrorIs(t, err, analysisdomain.ErrNoEntries)
}

func TestSaveRejectsDuplicateEntryDates(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Save(context.Background(), testAnalysis(), []*analysisdomain.DailyEntry{
		testEntry(1, 20),
		testEntry(1, 15),
	})
	assert.ErrorIs(t, err, analysisdomain.ErrDuplicateEntryDate)
}

func TestGetReturnsEntriesChronologically(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, testAnalysis(), []*analysisdomain.DailyEntry{
		testEntry(3, 10),
		testEntry(1, 20),
		testEntry(2, 15),
	})
	require.NoError(t, err)

	_, entries, err := svc.Get(ctx, saved.Reference)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Date.Day())
	assert.Equal(t, 2, entries[1].Date.Day())
	assert.Equal(t, 3, entries[2].Date.Day())
}

func TestGetUnknownReference(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Get(context.Background(), "no-such-reference")
	assert.ErrorIs(t, err, analysisdomain.ErrAnalysisNotFound)
}

func TestListForUserNewestFirstWithLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Save(ctx, testAnalysis(), []*analysisdomain.DailyEntry{testEntry(i+1, 10)})
		require.NoError(t, err)
	}
	other := testAnalysis()
	other.UserID = "user-2"
	_, err := svc.Save(ctx, other, []*analysisdomain.DailyEntry{testEntry(1, 5)})
	require.NoError(t, err)

	listed, err := svc.ListForUser(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	for _, a := range listed {
		assert.Equal(t, "user-1", a.UserID)
	}
}

func TestUpdateEntryPaidAmount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, testAnalysis(), []*analysisdomain.DailyEntry{testEntry(1, 20)})
	require.NoError(t, err)

	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateEntryPaidAmount(ctx, saved.Reference, date, 3500)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), updated.PaidPence)
	assert.Equal(t, int64(-500), updated.DifferencePence)

	_, err = svc.UpdateEntryPaidAmount(ctx, saved.Reference, date, -1)
	assert.ErrorIs(t, err, analysisdomain.ErrNegativePaidAmount)
}

func TestUpdateEntryPickupData(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, testAnalysis(), []*analysisdomain.DailyEntry{testEntry(1, 20)})
	require.NoError(t, err)

	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateEntryPickupData(ctx, saved.Reference, date, 2, 1200)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.PickupCount)
	assert.Equal(t, int64(1200), updated.PickupTotalPence)
	assert.Equal(t, int64(5200), updated.ExpectedTotalPence)
}

func TestUpdateEntryUnknownDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, testAnalysis(), []*analysisdomain.DailyEntry{testEntry(1, 20)})
	require.NoError(t, err)

	_, err = svc.UpdateEntryPaidAmount(ctx, saved.Reference, time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC), 1000)
	assert.ErrorIs(t, err, analysisdomain.ErrEntryNotFound)

	_, err = svc.UpdateEntryPaidAmount(ctx, "missing", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), 1000)
	assert.ErrorIs(t, err, analysisdomain.ErrAnalysisNotFound)
}
