// Package storage defines the persistence contract and its backends.
//
// Each entity collection is loaded and saved whole, mirroring the
// key-value contract the application was built around: a save fully
// replaces the stored collection.
package storage

import (
	"context"

	"fintrack/internal/core"
)

// Repository is the persistence collaborator. Implementations recover from
// corrupt stored data by returning an empty collection; a read error is
// reserved for genuine I/O failures.
type Repository interface {
	Transactions(ctx context.Context) ([]core.Transaction, error)
	SaveTransactions(ctx context.Context, transactions []core.Transaction) error

	Templates(ctx context.Context) ([]core.RecurringTemplate, error)
	SaveTemplates(ctx context.Context, templates []core.RecurringTemplate) error

	Budgets(ctx context.Context) ([]core.Budget, error)
	SaveBudgets(ctx context.Context, budgets []core.Budget) error

	SavingsGoals(ctx context.Context) ([]core.SavingsGoal, error)
	SaveSavingsGoals(ctx context.Context, goals []core.SavingsGoal) error

	Close() error
}
