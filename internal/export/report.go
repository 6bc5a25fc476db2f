package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"fintrack/internal/core"
)

// WriteReport renders a printable document: title, covered period, totals,
// and the transaction listing as a table.
func WriteReport(w io.Writer, transactions []core.Transaction) error {
	if _, err := fmt.Fprintln(w, "Financial Transactions Report"); err != nil {
		return err
	}

	if len(transactions) > 0 {
		minDate, maxDate := transactions[0].Date, transactions[0].Date
		for _, t := range transactions[1:] {
			if t.Date.Before(minDate.Time) {
				minDate = t.Date
			}
			if t.Date.After(maxDate.Time) {
				maxDate = t.Date
			}
		}
		if _, err := fmt.Fprintf(w, "Period: %s to %s\n", minDate, maxDate); err != nil {
			return err
		}
	}

	summary := core.Summarize(transactions)
	_, err := fmt.Fprintf(w, "Total Income: %s\nTotal Expenses: %s\nNet Amount: %s\n\n",
		core.FormatINR(summary.TotalIncome),
		core.FormatINR(summary.TotalExpenses),
		core.FormatINR(summary.NetIncome))
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Date", "Type", "Category", "Description", "Amount"})
	for _, t := range transactions {
		tw.AppendRow(table.Row{
			t.Date.String(),
			titleKind(t.Kind),
			t.Category,
			t.Description,
			core.FormatINR(t.Amount),
		})
	}
	tw.Render()
	return nil
}

func titleKind(k core.TransactionKind) string {
	switch k {
	case core.Income:
		return "Income"
	case core.Expense:
		return "Expense"
	}
	return string(k)
}
