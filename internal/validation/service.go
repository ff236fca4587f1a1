// Package validation applies cross-entity business-rule checks to analyses.
// Errors mark data that violates a hard invariant; warnings annotate plausible
// but unusual data and never block processing.
package validation

import (
	"fmt"
	"time"

	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/config"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
	"go.uber.org/fx"
)

// Result separates blocking errors from advisory warnings.
type Result struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether no blocking errors were found.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Service runs the business-rule checks. Thresholds come from the live
// extraction config so they can be tuned without a redeploy.
type Service struct {
	cfg *config.ExtractionConfigHolder
}

// Module provides the validation service.
var Module = fx.Module("validation.service",
	fx.Provide(NewService),
)

func NewService(cfg *config.ExtractionConfigHolder) *Service {
	return &Service{cfg: cfg}
}

// ValidateRules checks a rules version for hard violations and oddities.
func (s *Service) ValidateRules(rules rulesdomain.PaymentRules) Result {
	var result Result
	if rules.HasNegativeAmounts() {
		result.Errors = append(result.Errors, "payment rules contain a negative rate or bonus")
	}
	if rules.SaturdayRatePence < rules.WeekdayRatePence {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"saturday rate %s is lower than weekday rate %s",
			rules.SaturdayRate(), rules.WeekdayRate(),
		))
	}
	return result
}

// ValidateAnalysis checks a period's entries against the rules and period.
func (s *Service) ValidateAnalysis(entries []*analysisdomain.DailyEntry, rules rulesdomain.PaymentRules, periodStart, periodEnd time.Time) Result {
	cfg := s.cfg.Current()
	result := s.ValidateRules(rules)

	if len(entries) == 0 {
		result.Errors = append(result.Errors, "analysis has no daily entries")
		return result
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		day := entry.Date.UTC().Format(time.DateOnly)
		if seen[day] {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate entry for %s", day))
		}
		seen[day] = true

		if entry.PaidPence < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: negative paid amount", day))
		}
		if entry.Date.Weekday() == time.Sunday && entry.ConsignmentCount > 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: consignments recorded on a non-working day", day))
		}
		if entry.PaidPence > 0 && entry.ConsignmentCount == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: payment received with zero consignments", day))
		}
		if entry.ConsignmentCount > cfg.MaxDailyConsignments {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s: consignment count %d exceeds %d", day, entry.ConsignmentCount, cfg.MaxDailyConsignments,
			))
		}
		if entry.PaidPence > cfg.MaxDailyPaymentPence {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: paid amount exceeds daily limit", day))
		}
		if abs64(entry.DifferencePence) > cfg.DifferenceWarnPence {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s: difference of %s between paid and expected", day, entry.Difference(),
			))
		}
	}

	for _, missing := range missingWorkingDays(seen, periodStart, periodEnd) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no entry for expected working day %s", missing))
	}

	return result
}

// missingWorkingDays lists Mon-Sat dates inside the period without an entry.
func missingWorkingDays(seen map[string]bool, start, end time.Time) []string {
	var missing []string
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return missing
	}
	for day := start.UTC().Truncate(24 * time.Hour); !day.After(end.UTC()); day = day.Add(24 * time.Hour) {
		if day.Weekday() == time.Sunday {
			continue
		}
		if !seen[day.Format(time.DateOnly)] {
			missing = append(missing, day.Format(time.DateOnly))
		}
	}
	return missing
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
