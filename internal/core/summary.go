package core

import "sort"

// Summary holds the headline financial figures for a transaction list.
type Summary struct {
	TotalIncome   Money   `json:"totalIncome"`
	TotalExpenses Money   `json:"totalExpenses"`
	NetIncome     Money   `json:"netIncome"`
	SavingsRate   float64 `json:"savingsRate"`
}

// CategoryAmount is an expense total for a single category.
type CategoryAmount struct {
	Category string `json:"category"`
	Amount   Money  `json:"amount"`
}

// MonthTotals holds income and expense totals for one calendar month.
type MonthTotals struct {
	Month    string `json:"month"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
}

// Summarize computes income/expense totals, net income, and the savings
// rate (net over income, as a percentage). Zero income yields a zero rate.
func Summarize(transactions []Transaction) Summary {
	var s Summary
	for _, t := range transactions {
		switch t.Kind {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
		}
	}
	s.NetIncome = s.TotalIncome.Sub(s.TotalExpenses)
	if s.TotalIncome.Cents > 0 {
		s.SavingsRate = float64(s.NetIncome.Cents) / float64(s.TotalIncome.Cents) * 100
	}
	return s
}

// CategoryBreakdown groups expense transactions by category and returns the
// totals sorted by amount descending. Ties keep first-encountered order.
func CategoryBreakdown(transactions []Transaction) []CategoryAmount {
	totals := make(map[string]int64)
	var order []string
	for _, t := range transactions {
		if t.Kind != Expense {
			continue
		}
		if _, seen := totals[t.Category]; !seen {
			order = append(order, t.Category)
		}
		totals[t.Category] += t.Amount.Cents
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, cat := range order {
		out = append(out, CategoryAmount{Category: cat, Amount: Money{Cents: totals[cat]}})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// MonthlyBreakdown groups transactions by calendar month in the order the
// months first appear, then keeps only the last six distinct months present
// in the data. It does not consider calendar months relative to today.
func MonthlyBreakdown(transactions []Transaction) []MonthTotals {
	idx := make(map[string]int)
	var months []MonthTotals
	for _, t := range transactions {
		label := t.Date.MonthLabel()
		i, seen := idx[label]
		if !seen {
			i = len(months)
			idx[label] = i
			months = append(months, MonthTotals{Month: label})
		}
		switch t.Kind {
		case Income:
			months[i].Income = months[i].Income.Add(t.Amount)
		case Expense:
			months[i].Expenses = months[i].Expenses.Add(t.Amount)
		}
	}
	if len(months) > 6 {
		months = months[len(months)-6:]
	}
	return months
}
