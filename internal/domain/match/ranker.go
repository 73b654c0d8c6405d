package match

import "sort"

// MaxSuggestions caps the ranked suggestion list.
const MaxSuggestions = 5

// Rank orders candidates by score descending, breaking ties by strategy
// priority (exact > reference > fuzzy_ai > manual) and then by earliest
// due date, and truncates to MaxSuggestions. The input is not modified.
//
// Only one strategy populates the list per request, but Rank tolerates
// a mixed list.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].Score.Cmp(ranked[j].Score); cmp != 0 {
			return cmp > 0
		}
		if pi, pj := ranked[i].Method.Priority(), ranked[j].Method.Priority(); pi != pj {
			return pi < pj
		}
		return ranked[i].InvoiceDueDate.Before(ranked[j].InvoiceDueDate)
	})

	if len(ranked) > MaxSuggestions {
		ranked = ranked[:MaxSuggestions]
	}
	return ranked
}
