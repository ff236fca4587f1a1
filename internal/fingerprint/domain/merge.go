package domain

import (
	"sort"
	"time"

	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
)

// ApplyMerge combines stored daily entries with a re-submission's entries
// according to the chosen strategy. Entries are keyed by calendar date; the
// result is sorted chronologically and every entry has its derived fields
// recomputed.
//
// Strategy semantics per overlapping date:
//
//	smart:   keep manual edits untouched; otherwise take the larger
//	         consignment count (and its payment fields)
//	add:     sum counts and payment components
//	replace: incoming wins
//	max:     larger consignment count wins regardless of source
//
// Dates present on only one side always survive.
func ApplyMerge(strategy MergeStrategy, stored, incoming []analysisdomain.DailyEntry) []analysisdomain.DailyEntry {
	byDate := make(map[time.Time]analysisdomain.DailyEntry, len(stored)+len(incoming))
	for _, entry := range stored {
		byDate[dateKey(entry.Date)] = entry
	}

	for _, entry := range incoming {
		key := dateKey(entry.Date)
		existing, ok := byDate[key]
		if !ok {
			byDate[key] = entry
			continue
		}
		byDate[key] = mergeEntry(strategy, existing, entry)
	}

	merged := make([]analysisdomain.DailyEntry, 0, len(byDate))
	for _, entry := range byDate {
		entry.Recompute()
		merged = append(merged, entry)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

func mergeEntry(strategy MergeStrategy, stored, incoming analysisdomain.DailyEntry) analysisdomain.DailyEntry {
	switch strategy {
	case MergeReplace:
		return incoming
	case MergeAdd:
		out := stored
		out.ConsignmentCount += incoming.ConsignmentCount
		out.BasePaymentPence += incoming.BasePaymentPence
		out.PickupCount += incoming.PickupCount
		out.PickupTotalPence += incoming.PickupTotalPence
		out.PaidPence += incoming.PaidPence
		return out
	case MergeMax:
		if incoming.ConsignmentCount > stored.ConsignmentCount {
			return incoming
		}
		return stored
	case MergeSmart:
		fallthrough
	default:
		if stored.Source == analysisdomain.EntrySourceManual {
			return stored
		}
		if incoming.ConsignmentCount > stored.ConsignmentCount {
			return incoming
		}
		return stored
	}
}

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
