// Package domain defines content fingerprints for submitted file sets and
// manual entry edits. A fingerprint is a stable SHA-256 digest: the same
// inputs always produce the same digest regardless of submission order, so
// re-submissions can be detected without storing file contents.
package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Status classifies a newly computed fingerprint against stored history.
type Status string

const (
	// StatusNew means no prior fingerprint exists for the user.
	StatusNew Status = "new"
	// StatusUnchanged means the digest matches the latest stored one.
	StatusUnchanged Status = "unchanged"
	// StatusModified means the user has history but this digest is unseen.
	StatusModified Status = "modified"
	// StatusDuplicate means the digest was seen before, but is not the latest.
	StatusDuplicate Status = "duplicate"
)

// MergeStrategy selects how re-submitted data combines with stored data.
type MergeStrategy string

const (
	// MergeSmart keeps manual edits and takes the larger parsed value per day.
	MergeSmart MergeStrategy = "smart"
	// MergeAdd sums incoming values onto stored ones.
	MergeAdd MergeStrategy = "add"
	// MergeReplace discards stored values in favour of incoming ones.
	MergeReplace MergeStrategy = "replace"
	// MergeMax keeps the larger of stored and incoming per day.
	MergeMax MergeStrategy = "max"
)

var ErrUnknownMergeStrategy = errors.New("unknown_merge_strategy")

// ParseMergeStrategy validates a client-supplied strategy name.
func ParseMergeStrategy(raw string) (MergeStrategy, error) {
	switch MergeStrategy(raw) {
	case MergeSmart, MergeAdd, MergeReplace, MergeMax:
		return MergeStrategy(raw), nil
	case "":
		return MergeSmart, nil
	default:
		return "", ErrUnknownMergeStrategy
	}
}

// FileMetadata is the per-file identity that feeds the digest. Contents are
// represented only by the preview to keep hashing cheap on large documents.
type FileMetadata struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	Preview      string    `json:"preview"`
	Type         string    `json:"type"`
}

// Fingerprint is a computed digest plus the context it was computed in.
type Fingerprint struct {
	Digest     string    `json:"digest"`
	FileCount  int       `json:"file_count"`
	TotalSize  int64     `json:"total_size"`
	ComputedAt time.Time `json:"computed_at"`
}

// FileSummary is the slim per-file record kept with a stored fingerprint so
// later submissions can be classified as updates of the same files.
type FileSummary struct {
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	LastModifiedMs int64  `json:"last_modified_ms"`
}

// StoredFingerprint is the persisted history row per user submission.
type StoredFingerprint struct {
	ID        int64                            `gorm:"column:id;primaryKey" json:"id"`
	UserID    string                           `gorm:"column:user_id;index:idx_fingerprint_user" json:"user_id"`
	Digest    string                           `gorm:"column:digest;index:idx_fingerprint_digest" json:"digest"`
	Kind      string                           `gorm:"column:kind" json:"kind"`
	FileCount int                              `gorm:"column:file_count" json:"file_count"`
	TotalSize int64                            `gorm:"column:total_size" json:"total_size"`
	Files     datatypes.JSONSlice[FileSummary] `gorm:"column:files" json:"files,omitempty"`
	Metadata  datatypes.JSONMap                `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time                        `gorm:"column:created_at" json:"created_at"`
}

func (StoredFingerprint) TableName() string { return "fingerprints" }

// Kinds of stored fingerprints.
const (
	KindFileSet     = "file_set"
	KindManualEntry = "manual_entry"
)

// Comparison is the outcome of checking a submission against a user's
// history. UpdatedFiles is set for StatusModified and names the files whose
// lastModified moved while name and size stayed put.
type Comparison struct {
	Status       Status   `json:"status"`
	Digest       string   `json:"digest"`
	Previous     string   `json:"previous_digest,omitempty"`
	UpdatedFiles []string `json:"updated_files,omitempty"`
}
