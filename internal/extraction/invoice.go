package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/courierpay/courierpay/internal/config"
	"github.com/courierpay/courierpay/internal/money"
)

// Declared-total patterns, tried in order over the whole document text.
var declaredTotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Docket\s+Total:\s*£\s*(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`Total:\s*GBP\s*£\s*(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`GBP\s*£\s*(\d+(?:\.\d{1,2})?)\s*Total:`),
}

var (
	entryDatePattern   = regexp.MustCompile(`^\d{2}/\d{2}/\d{2}$`)
	entryTimePattern   = regexp.MustCompile(`^\d{2}:\d{2}$`)
	entryAmountPattern = regexp.MustCompile(`^£?(\d+\.\d{2})$`)
)

const pickupMarker = "-PickUp"

// InvoiceParser extracts dated payment line items from settlement invoices.
type InvoiceParser struct {
	cfg *config.ExtractionConfigHolder
}

func NewInvoiceParser(cfg *config.ExtractionConfigHolder) *InvoiceParser {
	return &InvoiceParser{cfg: cfg}
}

// CanParse routes by filename substrings first, then content keywords.
func (p *InvoiceParser) CanParse(filename, contentPreview string) bool {
	name := strings.ToLower(filename)
	if strings.Contains(name, "invoice") || strings.Contains(name, "bill") {
		return true
	}
	return strings.Contains(contentPreview, "Docket Total") || strings.Contains(contentPreview, "Invoice")
}

// Parse scans the full document text for date+time entry openings and captures
// the first in-band amount within the configured token window. Scanning stops
// permanently at the "Docket Total:" marker. It fails only when no entries
// were captured at all.
func (p *InvoiceParser) Parse(text string) (*InvoiceRecord, error) {
	cfg := p.cfg.Current()
	record := &InvoiceRecord{}

	record.DeclaredTotal = extractDeclaredTotal(text)

	tokens := strings.Fields(text)
	minAmount := money.FromPence(cfg.InvoiceMinAmountPence)
	maxAmount := money.FromPence(cfg.InvoiceMaxAmountPence)

scan:
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] == "Docket" && tokens[i+1] == "Total:" {
			break scan
		}
		if !entryDatePattern.MatchString(tokens[i]) || !entryTimePattern.MatchString(tokens[i+1]) {
			continue
		}

		date, err := parseShortDate(tokens[i])
		if err != nil {
			continue
		}

		pickup := i+2 < len(tokens) && tokens[i+2] == pickupMarker

		amount, found := firstAmountInWindow(tokens, i+2, cfg.EntryAmountWindow, minAmount, maxAmount)
		if !found {
			continue
		}

		entry := InvoiceEntry{
			Date:     date,
			Time:     tokens[i+1],
			Amount:   amount,
			Category: categorize(tokens, i, cfg.EntryAmountWindow, pickup),
		}
		record.Entries = append(record.Entries, entry)
		record.ComputedTotal = record.ComputedTotal.Add(amount)
	}

	if len(record.Entries) == 0 {
		return nil, ErrNoEntries
	}

	if record.DeclaredTotal != nil {
		diff := record.ComputedTotal.Sub(*record.DeclaredTotal).Abs()
		valid := diff.Pence() <= cfg.BalanceTolerance
		record.Valid = &valid
		if !valid {
			record.Warnings = append(record.Warnings, fmt.Sprintf(
				"computed total %s does not match declared total %s",
				record.ComputedTotal, record.DeclaredTotal,
			))
		}
	}

	return record, nil
}

func extractDeclaredTotal(text string) *money.Money {
	for _, pattern := range declaredTotalPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if total, err := money.FromString(m[1]); err == nil {
				return &total
			}
		}
	}
	return nil
}

// firstAmountInWindow returns the first token parsing as a decimal amount
// inside the band. Out-of-band tokens are skipped entirely: the band is a
// false-positive filter for consignment numbers and reference codes that look
// like amounts, not a business limit.
func firstAmountInWindow(tokens []string, start, window int, min, max money.Money) (money.Money, bool) {
	end := start + window
	if end > len(tokens) {
		end = len(tokens)
	}
	for _, token := range tokens[start:end] {
		m := entryAmountPattern.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		amount, err := money.FromString(m[1])
		if err != nil {
			continue
		}
		if amount.Cmp(min) < 0 || amount.Cmp(max) > 0 {
			continue
		}
		return amount, true
	}
	return money.Zero, false
}

// categorize applies simple substring checks over the entry's token window.
func categorize(tokens []string, start, window int, pickup bool) EntryCategory {
	if pickup {
		return CategoryPickup
	}
	end := start + window
	if end > len(tokens) {
		end = len(tokens)
	}
	snippet := strings.Join(tokens[start:end], " ")
	switch {
	case strings.Contains(snippet, "PickUp") || strings.Contains(snippet, "Pick Up"):
		return CategoryPickup
	case strings.Contains(snippet, "Extra") && strings.Contains(snippet, "Drop"):
		return CategoryExtraDrop
	default:
		return CategoryStandard
	}
}

// parseShortDate parses DD/MM/YY assuming the 2000s.
func parseShortDate(raw string) (time.Time, error) {
	return time.ParseInLocation("02/01/06", raw, time.UTC)
}
