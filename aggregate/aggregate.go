// Package aggregate counts records by a categorical field and ranks the counts.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/healthviz/patientdash/records"
)

// CategoryCount is the number of records sharing one category label.
type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Selector extracts the category of a record.
type Selector func(records.Record) string

func ByDisease(r records.Record) string { return r.Disease }
func ByGender(r records.Record) string  { return r.Gender }

// Count tallies rs by sel in a single pass. The result lists each distinct
// label once, in the order it first appears in rs.
func Count(rs records.RecordSet, sel Selector) []CategoryCount {
	index := make(map[string]int)
	var counts []CategoryCount
	for _, r := range rs {
		label := sel(r)
		if label == "" {
			label = records.UndefinedCategory
		}
		i, ok := index[label]
		if !ok {
			i = len(counts)
			index[label] = i
			counts = append(counts, CategoryCount{Label: label})
		}
		counts[i].Count++
	}
	return counts
}

// Rank returns counts sorted by count descending. Equal counts keep their input order.
func Rank(counts []CategoryCount) []CategoryCount {
	ranked := slices.Clone(counts)
	slices.SortStableFunc(ranked, func(a, b CategoryCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return ranked
}

// Sorted counts rs by sel and ranks the result.
func Sorted(rs records.RecordSet, sel Selector) []CategoryCount {
	return Rank(Count(rs, sel))
}

// Top returns the first limit pairs, or all of them if there are fewer.
func Top(pairs []CategoryCount, limit int) []CategoryCount {
	if limit <= 0 {
		return nil
	}
	return pairs[:min(limit, len(pairs))]
}

// Total sums the counts.
func Total(counts []CategoryCount) int {
	var total int
	for _, c := range counts {
		total += c.Count
	}
	return total
}
