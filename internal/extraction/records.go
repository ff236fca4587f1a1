// Package extraction turns raw page text from runsheet and invoice PDFs into
// typed records. Parsers never throw for expected failure modes; they return a
// record plus warnings, or a sentinel error when the document yields nothing
// usable.
package extraction

import (
	"errors"
	"time"

	"github.com/courierpay/courierpay/internal/money"
)

// DocType identifies which extractor produced a record.
type DocType string

const (
	DocTypeRunsheet DocType = "runsheet"
	DocTypeInvoice  DocType = "invoice"
	DocTypeUnknown  DocType = "unknown"
)

var (
	ErrNoDates        = errors.New("no_dates_found")
	ErrNoConsignments = errors.New("no_consignments_found")
	ErrNoEntries      = errors.New("no_invoice_entries_found")
)

// RunsheetDay is one resolved date's consignments.
type RunsheetDay struct {
	Date           time.Time `json:"date"`
	Count          int       `json:"count"`
	ConsignmentIDs []string  `json:"consignment_ids"`
}

// RunsheetRecord aggregates a runsheet document. Days are sorted
// chronologically; multiple pages resolving to the same date accumulate.
type RunsheetRecord struct {
	Days     []RunsheetDay `json:"days"`
	Total    int           `json:"total"`
	Warnings []string      `json:"warnings,omitempty"`
}

// EntryCategory classifies an invoice line item.
type EntryCategory string

const (
	CategoryStandard  EntryCategory = "standard"
	CategoryPickup    EntryCategory = "pickup"
	CategoryExtraDrop EntryCategory = "extra_drop"
)

// InvoiceEntry is one dated, timed payment line item.
type InvoiceEntry struct {
	Date     time.Time     `json:"date"`
	Time     string        `json:"time"`
	Amount   money.Money   `json:"amount"`
	Category EntryCategory `json:"category"`
}

// InvoiceRecord aggregates an invoice document. Valid is nil when no declared
// total could be extracted ("cannot validate"), otherwise it reports whether
// the computed total matches the declared one within a penny.
type InvoiceRecord struct {
	Entries       []InvoiceEntry `json:"entries"`
	DeclaredTotal *money.Money   `json:"declared_total,omitempty"`
	ComputedTotal money.Money    `json:"computed_total"`
	Valid         *bool          `json:"valid,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// CountByCategory tallies entries per category.
func (r *InvoiceRecord) CountByCategory(category EntryCategory) int {
	n := 0
	for _, entry := range r.Entries {
		if entry.Category == category {
			n++
		}
	}
	return n
}
