package export

import (
	"strings"
	"testing"

	"fintrack/internal/core"
)

func sampleTransactions() []core.Transaction {
	jan := core.NewDate(2024, 1, 15)
	feb := core.NewDate(2024, 2, 3)
	return []core.Transaction{
		{
			ID:          "t1",
			Kind:        core.Income,
			Amount:      core.Money{Cents: 5000000},
			Category:    "Salary",
			Description: "January salary",
			Date:        jan,
		},
		{
			ID:          "t2",
			Kind:        core.Expense,
			Amount:      core.Money{Cents: 125050},
			Category:    "Food & Dining",
			Description: "Groceries, weekly run",
			Date:        feb,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, sampleTransactions()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), buf.String())
	}
	if lines[0] != "Date,Type,Category,Description,Amount (INR)" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-01-15,income,Salary,January salary,50000.00" {
		t.Errorf("row 1 = %q", lines[1])
	}
	// the description contains a comma and must be quoted
	if lines[2] != `2024-02-03,expense,Food & Dining,"Groceries, weekly run",1250.50` {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "Date,Type,Category,Description,Amount (INR)" {
		t.Errorf("empty export = %q, want header only", got)
	}
}

func TestWriteReport(t *testing.T) {
	var buf strings.Builder
	if err := WriteReport(&buf, sampleTransactions()); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Financial Transactions Report",
		"Period: 2024-01-15 to 2024-02-03",
		"Total Income: ₹50,000",
		"Total Expenses: ₹1,251",
		"Income",
		"Expense",
		"Salary",
		"Food & Dining",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReportEmpty(t *testing.T) {
	var buf strings.Builder
	if err := WriteReport(&buf, nil); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Financial Transactions Report") {
		t.Errorf("report missing title:\n%s", buf.String())
	}
}
