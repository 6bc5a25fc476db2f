package core

import "sort"

// Curated category lists offered by clients. The model itself accepts any
// label; these are suggestions, not an enum.
var ExpenseCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Travel",
	"Groceries",
	"Petrol/Diesel",
	"Insurance",
	"Rent/EMI",
	"Mobile/Internet",
	"Other",
}

var IncomeCategories = []string{
	"Salary",
	"Freelance",
	"Business",
	"Investments",
	"Rental Income",
	"Bonus",
	"Gift",
	"Interest",
	"Other",
}

// UniqueCategories returns the distinct categories present in the given
// transactions, sorted alphabetically.
func UniqueCategories(transactions []Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range transactions {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	sort.Strings(out)
	return out
}
