// Package processor orchestrates a batch of uploaded PDFs: batch validation,
// per-file classification and parsing, and aggregation into a single result a
// caller can act on. Each file's outcome is independent; one bad file never
// aborts the batch.
package processor

import (
	"errors"
	"time"

	"github.com/courierpay/courierpay/internal/extraction"
)

var (
	ErrEmptyBatch    = errors.New("empty_batch")
	ErrWorkerStopped = errors.New("worker_stopped")
)

// FileInput is one uploaded file with the metadata the batch validators and
// the fingerprint service need.
type FileInput struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	LastModified time.Time `json:"last_modified"`
	Data         []byte    `json:"-"`
}

// FileResult is one file's parse outcome. Exactly one of Runsheet and Invoice
// is set on success; Error is set instead on failure.
type FileResult struct {
	Name     string                      `json:"name"`
	Type     extraction.DocType          `json:"type"`
	Runsheet *extraction.RunsheetRecord  `json:"runsheet,omitempty"`
	Invoice  *extraction.InvoiceRecord   `json:"invoice,omitempty"`
	Warnings []string                    `json:"warnings,omitempty"`
	Error    string                      `json:"error,omitempty"`
}

// OK reports whether the file parsed into a typed record.
func (r FileResult) OK() bool { return r.Error == "" }

// Summary counts outcomes per document category.
type Summary struct {
	Total         int `json:"total"`
	RunsheetOK    int `json:"runsheet_ok"`
	RunsheetFail  int `json:"runsheet_fail"`
	InvoiceOK     int `json:"invoice_ok"`
	InvoiceFail   int `json:"invoice_fail"`
	Unclassified  int `json:"unclassified"`
}

// BatchValidation splits hard errors from advisory warnings. Errors block
// parsing for the whole batch; warnings never do.
type BatchValidation struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// OK reports whether parsing may proceed.
func (v BatchValidation) OK() bool { return len(v.Errors) == 0 }

// ProcessingResult is the batch-level outcome.
type ProcessingResult struct {
	Summary    Summary         `json:"summary"`
	Files      []FileResult    `json:"files"`
	Validation BatchValidation `json:"validation"`
}
