package core

import "strings"

// FilterOptions are optional, conjunctive criteria over a transaction list.
// Zero values mean "no constraint"; amount bounds use pointers so that an
// explicit zero bound stays distinguishable from unset.
type FilterOptions struct {
	Kind       TransactionKind // empty or "all" matches both kinds
	Category   string          // exact match
	DateFrom   Date            // inclusive
	DateTo     Date            // inclusive
	AmountMin  *Money          // inclusive
	AmountMax  *Money          // inclusive
	SearchTerm string          // case-insensitive substring on description or category
}

// IsEmpty reports whether no criterion is set.
func (o FilterOptions) IsEmpty() bool {
	return (o.Kind == "" || o.Kind == "all") && o.Category == "" &&
		o.DateFrom.IsZero() && o.DateTo.IsZero() &&
		o.AmountMin == nil && o.AmountMax == nil && o.SearchTerm == ""
}

// Filter returns the transactions matching opts, in input order. The input
// slice is never modified; the result is always a fresh slice.
func Filter(transactions []Transaction, opts FilterOptions) []Transaction {
	out := make([]Transaction, 0, len(transactions))
	for _, t := range transactions {
		if matches(t, opts) {
			out = append(out, t)
		}
	}
	return out
}

// matches evaluates criteria in a fixed order: kind, category, date range,
// amount range, then search term. The order is kept as observed in the
// original application; with the search term last, the result is a plain
// conjunction of all set criteria.
func matches(t Transaction, o FilterOptions) bool {
	if o.Kind != "" && o.Kind != "all" && t.Kind != o.Kind {
		return false
	}
	if o.Category != "" && t.Category != o.Category {
		return false
	}
	if !o.DateFrom.IsZero() && t.Date.Before(o.DateFrom.Time) {
		return false
	}
	if !o.DateTo.IsZero() && t.Date.After(o.DateTo.Time) {
		return false
	}
	if o.AmountMin != nil && t.Amount.Cents < o.AmountMin.Cents {
		return false
	}
	if o.AmountMax != nil && t.Amount.Cents > o.AmountMax.Cents {
		return false
	}
	if o.SearchTerm != "" {
		q := strings.ToLower(o.SearchTerm)
		return strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Category), q)
	}
	return true
}
