package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/clock"
	"github.com/courierpay/courierpay/internal/config"
	fpdomain "github.com/courierpay/courierpay/internal/fingerprint/domain"
	fprepository "github.com/courierpay/courierpay/internal/fingerprint/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) fpdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&fpdomain.StoredFingerprint{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := fprepository.NewRepository(fprepository.RepositoryParam{
		DB:  db,
		Log: logger,
	})

	return NewService(ServiceParam{
		Log:   logger,
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)),
		Cfg:   config.NewStaticExtractionConfigHolder(config.DefaultExtractionConfig()),
		Repo:  repo,
	})
}

func testFiles() []fpdomain.FileMetadata {
	modified := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	return []fpdomain.FileMetadata{
		{Name: "Runsheet_A.pdf", Size: 1024, LastModified: modified, Preview: "%PDF runsheet a", Type: "application/pdf"},
		{Name: "invoice_b.pdf", Size: 2048, LastModified: modified, Preview: "%PDF invoice b", Type: "application/pdf"},
	}
}

func TestFileSetFingerprintDeterministic(t *testing.T) {
	svc := newTestService(t)
	first := svc.ComputeFileSet(testFiles())
	second := svc.ComputeFileSet(testFiles())
	assert.Equal(t, first.Digest, second.Digest)
	assert.Equal(t, 2, first.FileCount)
	assert.Equal(t, int64(3072), first.TotalSize)
}

func TestFileSetFingerprintOrderIndependent(t *testing.T) {
	svc := newTestService(t)
	files := testFiles()
	reversed := []fpdomain.FileMetadata{files[1], files[0]}
	assert.Equal(t, svc.ComputeFileSet(files).Digest, svc.ComputeFileSet(reversed).Digest)
}

func TestFileSetFingerprintNameCaseInsensitive(t *testing.T) {
	svc := newTestService(t)
	files := testFiles()
	original := svc.ComputeFileSet(files).Digest

	// A re-upload under shouting-case names is still the same file set.
	files[0].Name = "RUNSHEET_A.PDF"
	files[1].Name = "Invoice_B.pdf"
	assert.Equal(t, original, svc.ComputeFileSet(files).Digest)
}

func TestFileSetFingerprintSensitiveToContent(t *testing.T) {
	svc := newTestService(t)
	files := testFiles()
	original := svc.ComputeFileSet(files).Digest

	files[0].Preview = "%PDF different content"
	assert.NotEqual(t, original, svc.ComputeFileSet(files).Digest)
}

func TestCompareLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	files := testFiles()
	fp := svc.ComputeFileSet(files)

	comparison, err := svc.Record(ctx, "user-1", fpdomain.KindFileSet, fp, files)
	require.NoError(t, err)
	assert.Equal(t, fpdomain.StatusNew, comparison.Status)

	// Same digest as the latest submission.
	comparison, err = svc.Compare(ctx, "user-1", fp.Digest, files)
	require.NoError(t, err)
	assert.Equal(t, fpdomain.StatusUnchanged, comparison.Status)

	// A changed file: unseen digest, matching name+size, shifted mtime.
	updated := testFiles()
	updated[0].LastModified = updated[0].LastModified.Add(time.Hour)
	updated[0].Preview = "%PDF rescanned"
	updatedFp := svc.ComputeFileSet(updated)

	comparison, err = svc.Record(ctx, "user-1", fpdomain.KindFileSet, updatedFp, updated)
	require.NoError(t, err)
	assert.Equal(t, fpdomain.StatusModified, comparison.Status)
	assert.Equal(t, []string{"Runsheet_A.pdf"}, comparison.UpdatedFiles)

	// The original digest is now older history: duplicate, not unchanged.
	comparison, err = svc.Compare(ctx, "user-1", fp.Digest, files)
	require.NoError(t, err)
	assert.Equal(t, fpdomain.StatusDuplicate, comparison.Status)
	assert.Equal(t, updatedFp.Digest, comparison.Previous)
}

func TestCompareIsolatedPerUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	files := testFiles()
	fp := svc.ComputeFileSet(files)

	_, err := svc.Record(ctx, "user-1", fpdomain.KindFileSet, fp, files)
	require.NoError(t, err)

	comparison, err := svc.Compare(ctx, "user-2", fp.Digest, files)
	require.NoError(t, err)
	assert.Equal(t, fpdomain.StatusNew, comparison.Status)
}

func TestManualEntryFingerprintIgnoresOrder(t *testing.T) {
	svc := newTestService(t)

	entries := []analysisdomain.DailyEntry{
		{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), ConsignmentCount: 20, PaidPence: 14500},
		{Date: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), ConsignmentCount: 18, PaidPence: 14100},
	}
	reversed := []analysisdomain.DailyEntry{entries[1], entries[0]}

	assert.Equal(t,
		svc.ComputeManualEntries(entries).Digest,
		svc.ComputeManualEntries(reversed).Digest,
	)

	changed := []analysisdomain.DailyEntry{entries[0], entries[1]}
	changed[1].PaidPence = 9000
	assert.NotEqual(t,
		svc.ComputeManualEntries(entries).Digest,
		svc.ComputeManualEntries(changed).Digest,
	)
}
