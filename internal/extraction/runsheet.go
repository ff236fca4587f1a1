package extraction

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/courierpay/courierpay/internal/clock"
	"github.com/courierpay/courierpay/internal/config"
)

// Ordered date patterns: the labelled form first, then progressively looser
// alternatives. The first match on a page wins.
var runsheetDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Date:\s*(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`Date\s+(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`),
	regexp.MustCompile(`\b(\d{2}-\d{2}-\d{4})\b`),
}

var filenameDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{2})[-_.](\d{2})[-_.](\d{4})`),
	regexp.MustCompile(`(\d{4})[-_.](\d{2})[-_.](\d{2})`),
}

var (
	bareIntPattern       = regexp.MustCompile(`^\d+$`)
	consignmentIDPattern = regexp.MustCompile(`^(?:\d{7}|AH\d+)$`)
)

// RunsheetParser extracts per-date consignment counts from delivery manifests.
type RunsheetParser struct {
	cfg   *config.ExtractionConfigHolder
	clock clock.Clock
}

func NewRunsheetParser(cfg *config.ExtractionConfigHolder, clk clock.Clock) *RunsheetParser {
	return &RunsheetParser{cfg: cfg, clock: clk}
}

// CanParse routes by filename substrings first, then content keywords.
func (p *RunsheetParser) CanParse(filename, contentPreview string) bool {
	name := strings.ToLower(filename)
	if strings.Contains(name, "runsheet") || strings.Contains(name, "dv_") || strings.Contains(name, "self") {
		return true
	}
	return strings.Contains(contentPreview, "Runsheet") || strings.Contains(contentPreview, "Consignment")
}

// Parse resolves a date and counts consignments per page, then aggregates per
// date. It fails only when the whole document yields no dates or no
// consignments; everything else is a warning.
func (p *RunsheetParser) Parse(pages []string, filename string) (*RunsheetRecord, error) {
	cfg := p.cfg.Current()

	type dayAccum struct {
		count int
		ids   []string
	}
	days := make(map[time.Time]*dayAccum)
	datesFound := 0

	for _, page := range pages {
		date, explicit := p.resolvePageDate(page, filename)
		if explicit {
			datesFound++
		}

		ids := scanConsignments(page, cfg.ConsignmentLookahead)
		if len(ids) == 0 {
			continue
		}

		accum, ok := days[date]
		if !ok {
			accum = &dayAccum{}
			days[date] = accum
		}
		accum.count += len(ids)
		accum.ids = append(accum.ids, ids...)
	}

	if datesFound == 0 {
		return nil, ErrNoDates
	}

	record := &RunsheetRecord{}
	for date, accum := range days {
		record.Days = append(record.Days, RunsheetDay{
			Date:           date,
			Count:          accum.count,
			ConsignmentIDs: accum.ids,
		})
		record.Total += accum.count
	}
	if record.Total == 0 {
		return nil, ErrNoConsignments
	}

	sort.Slice(record.Days, func(i, j int) bool {
		return record.Days[i].Date.Before(record.Days[j].Date)
	})

	for _, day := range record.Days {
		if day.Count > cfg.MaxDailyConsignments {
			record.Warnings = append(record.Warnings, fmt.Sprintf(
				"%s: %d consignments exceeds the plausible daily limit of %d",
				day.Date.Format(time.DateOnly), day.Count, cfg.MaxDailyConsignments,
			))
		}
		if day.Date.Weekday() == time.Sunday {
			record.Warnings = append(record.Warnings, fmt.Sprintf(
				"%s: deliveries recorded on a Sunday", day.Date.Format(time.DateOnly),
			))
		}
	}

	return record, nil
}

// resolvePageDate tries the page text patterns in order, then the filename,
// then falls back to today. The boolean reports whether the date came from the
// document rather than the clock.
func (p *RunsheetParser) resolvePageDate(page, filename string) (time.Time, bool) {
	for _, pattern := range runsheetDatePatterns {
		if m := pattern.FindStringSubmatch(page); m != nil {
			if date, err := parseDayMonthYear(m[1]); err == nil {
				return date, true
			}
		}
	}
	if date, ok := dateFromFilename(filename); ok {
		return date, true
	}
	return p.clock.Now().Truncate(24 * time.Hour), false
}

// scanConsignments walks the whitespace tokens looking for a bare integer
// followed by a consignment ID whose next lookahead tokens mention Delivery or
// Collection. The ID is recorded; the leading integer is only a marker.
func scanConsignments(page string, lookahead int) []string {
	tokens := strings.Fields(page)
	var ids []string

	for i := 0; i+1 < len(tokens); i++ {
		if !bareIntPattern.MatchString(tokens[i]) {
			continue
		}
		if !consignmentIDPattern.MatchString(tokens[i+1]) {
			continue
		}
		if !windowMentionsService(tokens, i+2, lookahead) {
			continue
		}
		ids = append(ids, tokens[i+1])
	}
	return ids
}

func windowMentionsService(tokens []string, start, lookahead int) bool {
	end := start + lookahead
	if end > len(tokens) {
		end = len(tokens)
	}
	for _, token := range tokens[start:end] {
		if strings.Contains(token, "Delivery") || strings.Contains(token, "Collection") {
			return true
		}
	}
	return false
}

func parseDayMonthYear(raw string) (time.Time, error) {
	raw = strings.ReplaceAll(raw, "-", "/")
	return time.ParseInLocation("02/01/2006", raw, time.UTC)
}

func dateFromFilename(filename string) (time.Time, bool) {
	if m := filenameDatePatterns[0].FindStringSubmatch(filename); m != nil {
		if date, err := time.ParseInLocation("02/01/2006", m[1]+"/"+m[2]+"/"+m[3], time.UTC); err == nil {
			return date, true
		}
	}
	if m := filenameDatePatterns[1].FindStringSubmatch(filename); m != nil {
		if date, err := time.ParseInLocation("2006/01/02", m[1]+"/"+m[2]+"/"+m[3], time.UTC); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}
