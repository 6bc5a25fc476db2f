package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var ErrNotFound = errors.New("not found")

// Publisher notifies downstream consumers about transaction mutations.
// Publish failures are reported to the caller for logging but never fail
// the mutation itself.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
	PublishTransactionDelete(ctx context.Context, id string) error
}

// View bundles the derived read model for one filter selection.
type View struct {
	Transactions []core.Transaction    `json:"transactions"`
	Summary      core.Summary          `json:"summary"`
	Categories   []core.CategoryAmount `json:"categoryBreakdown"`
	Monthly      []core.MonthTotals    `json:"monthlyBreakdown"`
}

// ComputeView runs the filter and aggregation pipeline over a transaction
// snapshot. Pure; safe to call from any goroutine.
func ComputeView(transactions []core.Transaction, opts core.FilterOptions) View {
	filtered := core.Filter(transactions, opts)
	return View{
		Transactions: filtered,
		Summary:      core.Summarize(filtered),
		Categories:   core.CategoryBreakdown(filtered),
		Monthly:      core.MonthlyBreakdown(filtered),
	}
}

// Tracker owns the persisted collections. Engines only ever see snapshots;
// every mutation goes through the repository as a whole-collection save,
// serialized by the tracker's lock so concurrent HTTP requests cannot lose
// updates.
type Tracker struct {
	mu        sync.Mutex
	repo      storage.Repository
	publisher Publisher
	now       func() time.Time
}

func NewTracker(repo storage.Repository, publisher Publisher) *Tracker {
	return &Tracker{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// LoadAndReconcile loads both collections, materializes due recurring
// templates, persists whatever changed, and returns the merged state.
func (tr *Tracker) LoadAndReconcile(ctx context.Context) ([]core.Transaction, []core.RecurringTemplate, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	transactions, err := tr.repo.Transactions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load transactions: %w", err)
	}
	templates, err := tr.repo.Templates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load templates: %w", err)
	}

	created, updated := ProcessTemplates(templates, tr.now())
	if len(created) == 0 {
		return transactions, templates, nil
	}

	transactions = append(transactions, created...)
	if err := tr.repo.SaveTransactions(ctx, transactions); err != nil {
		return nil, nil, fmt.Errorf("persist materialized transactions: %w", err)
	}
	if err := tr.repo.SaveTemplates(ctx, updated); err != nil {
		return nil, nil, fmt.Errorf("persist updated templates: %w", err)
	}

	slog.InfoContext(ctx, "Materialized recurring transactions",
		"created", len(created),
		"templates", len(templates))

	for _, t := range created {
		tr.notifySync(ctx, t.ID)
	}
	return transactions, updated, nil
}

// AddTransaction validates and appends a transaction, assigning an ID when
// the caller left it empty, and persists the full collection.
func (tr *Tracker) AddTransaction(ctx context.Context, t core.Transaction) ([]core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	transactions, err := tr.repo.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	transactions = append(transactions, t)
	if err := tr.repo.SaveTransactions(ctx, transactions); err != nil {
		return nil, fmt.Errorf("save transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", t.ID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)

	tr.notifySync(ctx, t.ID)
	return transactions, nil
}

// DeleteTransaction removes a transaction by ID and persists the remainder.
func (tr *Tracker) DeleteTransaction(ctx context.Context, id string) ([]core.Transaction, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	transactions, err := tr.repo.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	kept := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(transactions) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}

	if err := tr.repo.SaveTransactions(ctx, kept); err != nil {
		return nil, fmt.Errorf("save transactions: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)

	if tr.publisher != nil {
		if err := tr.publisher.PublishTransactionDelete(ctx, id); err != nil {
			slog.WarnContext(ctx, "Failed to publish delete message", "id", id, "error", err)
		}
	}
	return kept, nil
}

// AddTemplate validates and appends a recurring template.
func (tr *Tracker) AddTemplate(ctx context.Context, t core.RecurringTemplate) ([]core.RecurringTemplate, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	templates, err := tr.repo.Templates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	templates = append(templates, t)
	if err := tr.repo.SaveTemplates(ctx, templates); err != nil {
		return nil, fmt.Errorf("save templates: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template created",
		"id", t.ID,
		"frequency", t.Frequency,
		"category", t.Category)
	return templates, nil
}

// DeleteTemplate removes a template. Transactions it materialized keep
// their back-reference; the relation is weak by design.
func (tr *Tracker) DeleteTemplate(ctx context.Context, id string) ([]core.RecurringTemplate, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	templates, err := tr.repo.Templates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	kept := make([]core.RecurringTemplate, 0, len(templates))
	for _, t := range templates {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(templates) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}

	if err := tr.repo.SaveTemplates(ctx, kept); err != nil {
		return nil, fmt.Errorf("save templates: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template deleted", "id", id)
	return kept, nil
}

// Transactions returns the current transaction collection.
func (tr *Tracker) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return tr.repo.Transactions(ctx)
}

// Templates returns the current template collection.
func (tr *Tracker) Templates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return tr.repo.Templates(ctx)
}

// Budgets returns stored budgets with Spent refreshed from the expense
// transactions currently on record.
func (tr *Tracker) Budgets(ctx context.Context) ([]core.Budget, error) {
	budgets, err := tr.repo.Budgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	transactions, err := tr.repo.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	spent := make(map[string]int64)
	for _, t := range transactions {
		if t.Kind == core.Expense {
			spent[t.Category] += t.Amount.Cents
		}
	}
	for i := range budgets {
		budgets[i].Spent = core.Money{Cents: spent[budgets[i].Category]}
	}
	return budgets, nil
}

// SetBudget inserts or replaces the budget for a category.
func (tr *Tracker) SetBudget(ctx context.Context, b core.Budget) ([]core.Budget, error) {
	if b.Category == "" {
		return nil, core.ErrEmptyCategory
	}
	if err := b.Limit.Validate(); err != nil {
		return nil, err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	budgets, err := tr.repo.Budgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}

	replaced := false
	for i := range budgets {
		if budgets[i].Category == b.Category {
			budgets[i].Limit = b.Limit
			replaced = true
			break
		}
	}
	if !replaced {
		budgets = append(budgets, b)
	}

	if err := tr.repo.SaveBudgets(ctx, budgets); err != nil {
		return nil, fmt.Errorf("save budgets: %w", err)
	}
	return budgets, nil
}

// SavingsGoals returns the stored savings goals.
func (tr *Tracker) SavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	return tr.repo.SavingsGoals(ctx)
}

// AddSavingsGoal validates and appends a savings goal.
func (tr *Tracker) AddSavingsGoal(ctx context.Context, g core.SavingsGoal) ([]core.SavingsGoal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Name == "" {
		return nil, core.ErrEmptyDescription
	}
	if err := g.Target.Validate(); err != nil {
		return nil, err
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	goals, err := tr.repo.SavingsGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load savings goals: %w", err)
	}
	goals = append(goals, g)
	if err := tr.repo.SaveSavingsGoals(ctx, goals); err != nil {
		return nil, fmt.Errorf("save savings goals: %w", err)
	}
	return goals, nil
}

func (tr *Tracker) notifySync(ctx context.Context, id string) {
	if tr.publisher == nil {
		return
	}
	if err := tr.publisher.PublishTransactionSync(ctx, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
