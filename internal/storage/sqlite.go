package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// SQLiteRepository persists the collections in SQLite. Saves replace the
// whole table inside one transaction so the repository keeps the same
// overwrite contract as the JSON store; the position column preserves
// collection order across reloads.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Transactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, amount_cents, category, description, date, is_recurring, template_id
		FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var t core.Transaction
		var kind, date string
		var recurring int
		if err := rows.Scan(&t.ID, &kind, &t.Amount.Cents, &t.Category, &t.Description, &date, &recurring, &t.TemplateID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.TransactionKind(kind)
		t.IsRecurring = recurring != 0
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveTransactions(ctx context.Context, transactions []core.Transaction) error {
	return r.overwrite(ctx, "transactions", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (position, id, kind, amount_cents, category, description, date, is_recurring, template_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, t := range transactions {
			recurring := 0
			if t.IsRecurring {
				recurring = 1
			}
			if _, err := stmt.ExecContext(ctx, i, t.ID, string(t.Kind), t.Amount.Cents,
				t.Category, t.Description, t.Date.String(), recurring, t.TemplateID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Templates(ctx context.Context) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, amount_cents, category, description, frequency, start_date, end_date, is_active, last_processed
		FROM recurring_templates ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	out := []core.RecurringTemplate{}
	for rows.Next() {
		var t core.RecurringTemplate
		var kind, frequency, start, end, last string
		var active int
		if err := rows.Scan(&t.ID, &kind, &t.Amount.Cents, &t.Category, &t.Description,
			&frequency, &start, &end, &active, &last); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Kind = core.TransactionKind(kind)
		t.Frequency = core.Frequency(frequency)
		t.IsActive = active != 0
		if t.StartDate, err = core.ParseDate(start); err != nil {
			return nil, fmt.Errorf("template %s start date: %w", t.ID, err)
		}
		if t.EndDate, err = parseOptionalDate(end); err != nil {
			return nil, fmt.Errorf("template %s end date: %w", t.ID, err)
		}
		if t.LastProcessed, err = parseOptionalDate(last); err != nil {
			return nil, fmt.Errorf("template %s last processed: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveTemplates(ctx context.Context, templates []core.RecurringTemplate) error {
	return r.overwrite(ctx, "recurring_templates", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO recurring_templates (position, id, kind, amount_cents, category, description, frequency, start_date, end_date, is_active, last_processed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, t := range templates {
			active := 0
			if t.IsActive {
				active = 1
			}
			if _, err := stmt.ExecContext(ctx, i, t.ID, string(t.Kind), t.Amount.Cents,
				t.Category, t.Description, string(t.Frequency), t.StartDate.String(),
				formatOptionalDate(t.EndDate), active, formatOptionalDate(t.LastProcessed)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Budgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, limit_cents, spent_cents FROM budgets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.Category, &b.Limit.Cents, &b.Spent.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveBudgets(ctx context.Context, budgets []core.Budget) error {
	return r.overwrite(ctx, "budgets", func(tx *sql.Tx) error {
		for i, b := range budgets {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO budgets (position, category, limit_cents, spent_cents) VALUES (?, ?, ?, ?)`,
				i, b.Category, b.Limit.Cents, b.Spent.Cents); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) SavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_cents, current_cents, deadline FROM savings_goals ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query savings goals: %w", err)
	}
	defer rows.Close()

	out := []core.SavingsGoal{}
	for rows.Next() {
		var g core.SavingsGoal
		var deadline string
		if err := rows.Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Current.Cents, &deadline); err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		if g.Deadline, err = parseOptionalDate(deadline); err != nil {
			return nil, fmt.Errorf("savings goal %s deadline: %w", g.ID, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveSavingsGoals(ctx context.Context, goals []core.SavingsGoal) error {
	return r.overwrite(ctx, "savings_goals", func(tx *sql.Tx) error {
		for i, g := range goals {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO savings_goals (position, id, name, target_cents, current_cents, deadline) VALUES (?, ?, ?, ?, ?, ?)`,
				i, g.ID, g.Name, g.Target.Cents, g.Current.Cents, formatOptionalDate(g.Deadline)); err != nil {
				return err
			}
		}
		return nil
	})
}

// overwrite clears the table and repopulates it within one transaction.
func (r *SQLiteRepository) overwrite(ctx context.Context, table string, insert func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func formatOptionalDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
