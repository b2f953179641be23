package resolver

import (
	"sort"
	"strings"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

// dateLayout is the upstream date contract, e.g. "2024-Jan-15".
const dateLayout = "2006-Jan-02"

// recencyWindow is the lookback for the recent-event signal, inclusive.
const recencyWindow = 365 * 24 * time.Hour

// splitMulti breaks a ";"-joined upstream field into trimmed non-empty parts.
func splitMulti(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// evalRecency classifies the recent-event signal for one entity. Medium when
// any date parses and falls within the lookback of now (future dates count as
// recent), NoRisk when dates parse but all are older, Undetermined when no
// row carries a parseable date. It also returns the date values that drove a
// Medium classification, deduplicated and sorted.
func evalRecency(rows []SignalRow, now time.Time) (level risk.Level, recentDates []string) {
	cutoff := now.Add(-recencyWindow)
	anyParsed := false
	recent := map[string]struct{}{}

	for _, row := range rows {
		for _, raw := range splitMulti(row.DateValue) {
			d, err := time.Parse(dateLayout, raw)
			if err != nil {
				continue
			}
			anyParsed = true
			if !d.Before(cutoff) {
				recent[raw] = struct{}{}
			}
		}
	}

	switch {
	case len(recent) > 0:
		return risk.Medium, sortedKeys(recent)
	case anyParsed:
		return risk.NoRisk, nil
	default:
		return risk.Undetermined, nil
	}
}

// evalCountryMatch classifies the sanctioned-country signal. Medium when any
// registered country matches the reference set, NoRisk when countries exist
// but none match, Undetermined when no row carries a country. Matching is
// exact on the trimmed value. Matched countries come back deduplicated and
// sorted.
func evalCountryMatch(rows []SignalRow, sanctioned map[string]struct{}) (level risk.Level, matched []string) {
	anyCountry := false
	hits := map[string]struct{}{}

	for _, row := range rows {
		for _, country := range splitMulti(row.RegisteredCountry) {
			anyCountry = true
			if _, ok := sanctioned[country]; ok {
				hits[country] = struct{}{}
			}
		}
	}

	switch {
	case len(hits) > 0:
		return risk.Medium, sortedKeys(hits)
	case anyCountry:
		return risk.NoRisk, nil
	default:
		return risk.Undetermined, nil
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
