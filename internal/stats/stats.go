// Package stats aggregates a snapshot of entries for the stats command.
package stats

import (
	"sort"
	"strings"

	"github.com/xolan/outreach/internal/category"
	"github.com/xolan/outreach/internal/entry"
)

// Statistics contains aggregated statistics for a set of entries
type Statistics struct {
	EntryCount int
	WithEmail  int
	WithUser   int
	// DistinctDomains counts email domains, case-insensitively.
	DistinctDomains int
}

// CategoryBreakdown contains statistics for a single category
type CategoryBreakdown struct {
	Category   category.Category
	EntryCount int
	Percentage float64
}

// DomainBreakdown contains statistics for a single email domain
type DomainBreakdown struct {
	Domain     string
	EntryCount int
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// CalculateStatistics computes totals for entries
func CalculateStatistics(entries []entry.Entry) Statistics {
	stats := Statistics{EntryCount: len(entries)}
	domains := make(map[string]bool)
	for _, e := range entries {
		if e.Email != "" {
			stats.WithEmail++
			if d := emailDomain(e.Email); d != "" {
				domains[d] = true
			}
		}
		if e.User != "" {
			stats.WithUser++
		}
	}
	stats.DistinctDomains = len(domains)
	return stats
}

// CalculateCategoryBreakdown counts entries per category in registry
// order, including empty categories. Entries with an unknown code are
// grouped under category.Unknown, listed last and only when present.
func CalculateCategoryBreakdown(entries []entry.Entry, reg *category.Registry) []CategoryBreakdown {
	counts := make(map[int]int)
	unknown := 0
	for _, e := range entries {
		if reg.Known(e.Category) {
			counts[e.Category]++
		} else {
			unknown++
		}
	}

	var breakdowns []CategoryBreakdown
	for _, c := range reg.List() {
		breakdowns = append(breakdowns, CategoryBreakdown{Category: c, EntryCount: counts[c.ID]})
	}
	if unknown > 0 {
		breakdowns = append(breakdowns, CategoryBreakdown{Category: category.Unknown, EntryCount: unknown})
	}
	if len(entries) > 0 {
		for i := range breakdowns {
			breakdowns[i].Percentage = float64(breakdowns[i].EntryCount) * 100 / float64(len(entries))
		}
	}
	return breakdowns
}

// CalculateDomainBreakdown groups entries by email domain and returns the
// breakdown sorted by count, then domain. Entries without an email are
// skipped.
func CalculateDomainBreakdown(entries []entry.Entry) []DomainBreakdown {
	domainMap := make(map[string]int)
	for _, e := range entries {
		if d := emailDomain(e.Email); d != "" {
			domainMap[d]++
		}
	}

	breakdowns := make([]DomainBreakdown, 0, len(domainMap))
	for d, n := range domainMap {
		breakdowns = append(breakdowns, DomainBreakdown{Domain: d, EntryCount: n})
	}
	sort.Slice(breakdowns, func(i, j int) bool {
		if breakdowns[i].EntryCount != breakdowns[j].EntryCount {
			return breakdowns[i].EntryCount > breakdowns[j].EntryCount
		}
		return breakdowns[i].Domain < breakdowns[j].Domain
	})
	return breakdowns
}
