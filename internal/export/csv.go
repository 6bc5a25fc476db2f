// Package export renders transaction lists for consumers outside the
// application: delimited text, a printable report, and an offsite
// spreadsheet copy.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"fintrack/internal/core"
)

var csvHeader = []string{"Date", "Type", "Category", "Description", "Amount (INR)"}

// WriteCSV writes one row per transaction in input order.
func WriteCSV(w io.Writer, transactions []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range transactions {
		row := []string{
			t.Date.String(),
			string(t.Kind),
			t.Category,
			t.Description,
			t.Amount.Decimal(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
