package domain

import (
	"context"

	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
)

// Service computes and tracks content fingerprints.
type Service interface {
	// ComputeFileSet derives a deterministic digest for a set of files. The
	// result is independent of the order files are supplied in.
	ComputeFileSet(files []FileMetadata) Fingerprint

	// ComputeManualEntries derives a digest for manually edited daily entries.
	ComputeManualEntries(entries []analysisdomain.DailyEntry) Fingerprint

	// Record classifies a submission against the user's history, then
	// persists it. The comparison never blocks the write: even duplicates
	// are appended so history stays complete.
	Record(ctx context.Context, userID, kind string, fp Fingerprint, files []FileMetadata) (*Comparison, error)

	// Compare classifies a submission against the user's history without
	// storing it. files may be nil for digest-only checks.
	Compare(ctx context.Context, userID, digest string, files []FileMetadata) (*Comparison, error)
}
