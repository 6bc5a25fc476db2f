package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"fintrack/internal/core"
)

const (
	transactionsFile = "transactions.json"
	templatesFile    = "recurring_templates.json"
	budgetsFile      = "budgets.json"
	goalsFile        = "savings_goals.json"
)

// JSONStore keeps each collection in one JSON document under a data
// directory. It is the local equivalent of a browser's key-value storage:
// reads of missing or corrupt documents yield an empty collection, writes
// replace the document atomically.
type JSONStore struct {
	mu  sync.Mutex
	dir string
}

func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

func (s *JSONStore) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return readCollection[core.Transaction](ctx, s, transactionsFile)
}

func (s *JSONStore) SaveTransactions(ctx context.Context, transactions []core.Transaction) error {
	return writeCollection(ctx, s, transactionsFile, transactions)
}

func (s *JSONStore) Templates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return readCollection[core.RecurringTemplate](ctx, s, templatesFile)
}

func (s *JSONStore) SaveTemplates(ctx context.Context, templates []core.RecurringTemplate) error {
	return writeCollection(ctx, s, templatesFile, templates)
}

func (s *JSONStore) Budgets(ctx context.Context) ([]core.Budget, error) {
	return readCollection[core.Budget](ctx, s, budgetsFile)
}

func (s *JSONStore) SaveBudgets(ctx context.Context, budgets []core.Budget) error {
	return writeCollection(ctx, s, budgetsFile, budgets)
}

func (s *JSONStore) SavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	return readCollection[core.SavingsGoal](ctx, s, goalsFile)
}

func (s *JSONStore) SaveSavingsGoals(ctx context.Context, goals []core.SavingsGoal) error {
	return writeCollection(ctx, s, goalsFile, goals)
}

func (s *JSONStore) Close() error {
	return nil
}

func readCollection[T any](ctx context.Context, s *JSONStore, name string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		// Corrupt stored data degrades to an empty collection instead of
		// blocking the application.
		slog.WarnContext(ctx, "Stored collection is unreadable, starting empty",
			"file", name,
			"error", err)
		return []T{}, nil
	}
	return out, nil
}

func writeCollection[T any](ctx context.Context, s *JSONStore, name string, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}

	slog.DebugContext(ctx, "Collection saved", "file", name, "items", len(items))
	return nil
}
