// Package service implements fingerprint computation and history tracking.
//
// Digest layout, file sets:
//
//	per-file:  sha256("lower(name)|size|lastModifiedMillis|preview")
//	aggregate: sha256(join(sortedFileHashes) + "|count|totalSize|" + join(sortedTypes))
//
// Files are sorted by lowercased name before hashing and the per-file hashes
// are sorted again before aggregation, so the digest is order-independent.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/clock"
	"github.com/courierpay/courierpay/internal/config"
	fpdomain "github.com/courierpay/courierpay/internal/fingerprint/domain"
	fprepository "github.com/courierpay/courierpay/internal/fingerprint/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	cfg   *config.ExtractionConfigHolder
	repo  fprepository.Repository
}

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   *config.ExtractionConfigHolder
	Repo  fprepository.Repository
}

func NewService(p ServiceParam) fpdomain.Service {
	return &Service{
		log:   p.Log.Named("fingerprint.service"),
		genID: p.GenID,
		clock: p.Clock,
		cfg:   p.Cfg,
		repo:  p.Repo,
	}
}

func (s *Service) ComputeFileSet(files []fpdomain.FileMetadata) fpdomain.Fingerprint {
	previewChars := s.cfg.Current().ContentPreviewChars

	sorted := make([]fpdomain.FileMetadata, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	hashes := make([]string, 0, len(sorted))
	typeSet := make(map[string]bool)
	var totalSize int64
	for _, file := range sorted {
		hashes = append(hashes, hashFile(file, previewChars))
		typeSet[file.Type] = true
		totalSize += file.Size
	}
	sort.Strings(hashes)

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)

	sum := sha256.Sum256([]byte(fmt.Sprintf(
		"%s|%d|%d|%s",
		strings.Join(hashes, ","), len(sorted), totalSize, strings.Join(types, ","),
	)))

	return fpdomain.Fingerprint{
		Digest:     hex.EncodeToString(sum[:]),
		FileCount:  len(sorted),
		TotalSize:  totalSize,
		ComputedAt: s.clock.Now(),
	}
}

func (s *Service) ComputeManualEntries(entries []analysisdomain.DailyEntry) fpdomain.Fingerprint {
	sorted := make([]analysisdomain.DailyEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	parts := make([]string, 0, len(sorted))
	for _, entry := range sorted {
		parts = append(parts, fmt.Sprintf(
			"%s:%d:%d:%d",
			entry.Date.UTC().Format(time.DateOnly),
			entry.ConsignmentCount, entry.PaidPence, entry.PickupTotalPence,
		))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fpdomain.Fingerprint{
		Digest:     hex.EncodeToString(sum[:]),
		FileCount:  len(sorted),
		ComputedAt: s.clock.Now(),
	}
}

func (s *Service) Record(ctx context.Context, userID, kind string, fp fpdomain.Fingerprint, files []fpdomain.FileMetadata) (*fpdomain.Comparison, error) {
	comparison, err := s.Compare(ctx, userID, fp.Digest, files)
	if err != nil {
		return nil, err
	}

	stored := &fpdomain.StoredFingerprint{
		ID:        s.genID.Generate().Int64(),
		UserID:    userID,
		Digest:    fp.Digest,
		Kind:      kind,
		FileCount: fp.FileCount,
		TotalSize: fp.TotalSize,
		Files:     datatypes.JSONSlice[fpdomain.FileSummary](summarize(files)),
		Metadata: datatypes.JSONMap{
			"status": string(comparison.Status),
		},
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Save(ctx, stored); err != nil {
		return nil, err
	}

	s.log.Info("fingerprint recorded",
		zap.String("user_id", userID),
		zap.String("kind", kind),
		zap.String("status", string(comparison.Status)),
	)
	return comparison, nil
}

// Compare classifies a submission:
//
//	unchanged: digest equals the latest stored digest
//	duplicate: digest equals an older stored digest
//	modified:  unseen digest, but a prior submission holds a file with the
//	           same name and size whose lastModified differs
//	new:       everything else
func (s *Service) Compare(ctx context.Context, userID, digest string, files []fpdomain.FileMetadata) (*fpdomain.Comparison, error) {
	priors, err := s.repo.History(ctx, userID, historyWindow)
	if err != nil {
		return nil, err
	}
	if len(priors) == 0 {
		return &fpdomain.Comparison{Status: fpdomain.StatusNew, Digest: digest}, nil
	}

	latest := priors[0].Digest
	if latest == digest {
		return &fpdomain.Comparison{Status: fpdomain.StatusUnchanged, Digest: digest, Previous: latest}, nil
	}
	for _, prior := range priors[1:] {
		if prior.Digest == digest {
			return &fpdomain.Comparison{Status: fpdomain.StatusDuplicate, Digest: digest, Previous: latest}, nil
		}
	}

	if updated := updatedFiles(priors, files); len(updated) > 0 {
		return &fpdomain.Comparison{
			Status:       fpdomain.StatusModified,
			Digest:       digest,
			Previous:     latest,
			UpdatedFiles: updated,
		}, nil
	}
	return &fpdomain.Comparison{Status: fpdomain.StatusNew, Digest: digest, Previous: latest}, nil
}

// historyWindow caps how far back Compare scans. Submissions are per user and
// infrequent, so a shallow window covers all realistic duplicates.
const historyWindow = 100

func summarize(files []fpdomain.FileMetadata) []fpdomain.FileSummary {
	if len(files) == 0 {
		return nil
	}
	summaries := make([]fpdomain.FileSummary, 0, len(files))
	for _, file := range files {
		summaries = append(summaries, fpdomain.FileSummary{
			Name:           strings.ToLower(file.Name),
			Size:           file.Size,
			LastModifiedMs: file.LastModified.UnixMilli(),
		})
	}
	return summaries
}

// updatedFiles reports incoming files that match a stored file by name and
// size but carry a different modification time.
func updatedFiles(priors []*fpdomain.StoredFingerprint, files []fpdomain.FileMetadata) []string {
	var updated []string
	for _, file := range files {
		name := strings.ToLower(file.Name)
		ms := file.LastModified.UnixMilli()
		for _, prior := range priors {
			for _, stored := range prior.Files {
				if stored.Name == name && stored.Size == file.Size && stored.LastModifiedMs != ms {
					updated = append(updated, file.Name)
				}
			}
		}
	}
	return dedupe(updated)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func hashFile(file fpdomain.FileMetadata, previewChars int) string {
	preview := file.Preview
	if len(preview) > previewChars {
		preview = preview[:previewChars]
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf(
		"%s|%d|%d|%s",
		strings.ToLower(file.Name), file.Size, file.LastModified.UnixMilli(), preview,
	)))
	return hex.EncodeToString(sum[:])
}
