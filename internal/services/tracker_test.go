package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

// fakeRepo is an in-memory Repository for controller tests.
type fakeRepo struct {
	transactions []core.Transaction
	templates    []core.RecurringTemplate
	budgets      []core.Budget
	goals        []core.SavingsGoal

	txSaves  int
	tplSaves int
	saveErr  error
}

func (f *fakeRepo) Transactions(context.Context) ([]core.Transaction, error) {
	return append([]core.Transaction(nil), f.transactions...), nil
}

func (f *fakeRepo) SaveTransactions(_ context.Context, ts []core.Transaction) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.transactions = append([]core.Transaction(nil), ts...)
	f.txSaves++
	return nil
}

func (f *fakeRepo) Templates(context.Context) ([]core.RecurringTemplate, error) {
	return append([]core.RecurringTemplate(nil), f.templates...), nil
}

func (f *fakeRepo) SaveTemplates(_ context.Context, ts []core.RecurringTemplate) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.templates = append([]core.RecurringTemplate(nil), ts...)
	f.tplSaves++
	return nil
}

func (f *fakeRepo) Budgets(context.Context) ([]core.Budget, error) {
	return append([]core.Budget(nil), f.budgets...), nil
}

func (f *fakeRepo) SaveBudgets(_ context.Context, bs []core.Budget) error {
	f.budgets = append([]core.Budget(nil), bs...)
	return nil
}

func (f *fakeRepo) SavingsGoals(context.Context) ([]core.SavingsGoal, error) {
	return append([]core.SavingsGoal(nil), f.goals...), nil
}

func (f *fakeRepo) SaveSavingsGoals(_ context.Context, gs []core.SavingsGoal) error {
	f.goals = append([]core.SavingsGoal(nil), gs...)
	return nil
}

func (f *fakeRepo) Close() error { return nil }

type recordingPublisher struct {
	synced  []string
	deleted []string
}

func (p *recordingPublisher) PublishTransactionSync(_ context.Context, id string) error {
	p.synced = append(p.synced, id)
	return nil
}

func (p *recordingPublisher) PublishTransactionDelete(_ context.Context, id string) error {
	p.deleted = append(p.deleted, id)
	return nil
}

func frozen(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTracker_LoadAndReconcile_MaterializesAndPersists(t *testing.T) {
	now := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	repo := &fakeRepo{
		templates: []core.RecurringTemplate{{
			ID:          "rt-1",
			Kind:        core.Expense,
			Amount:      core.Money{Cents: 19900},
			Category:    "Bills & Utilities",
			Description: "Internet",
			Frequency:   core.Daily,
			StartDate:   core.NewDate(2024, 3, 5),
			IsActive:    true,
		}},
	}
	pub := &recordingPublisher{}
	tr := NewTracker(repo, pub)
	tr.now = frozen(now)

	transactions, templates, err := tr.LoadAndReconcile(context.Background())
	if err != nil {
		t.Fatalf("LoadAndReconcile: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("got %d transactions, want 1 (ten elapsed days is still one instance)", len(transactions))
	}
	if templates[0].LastProcessed != core.NewDate(2024, 3, 15) {
		t.Errorf("lastProcessed = %v, want today", templates[0].LastProcessed)
	}
	if repo.txSaves != 1 || repo.tplSaves != 1 {
		t.Errorf("saves = %d/%d, want 1/1", repo.txSaves, repo.tplSaves)
	}
	if len(pub.synced) != 1 || pub.synced[0] != transactions[0].ID {
		t.Errorf("sync messages = %v", pub.synced)
	}

	// Second reconcile with the same frozen clock changes nothing.
	again, _, err := tr.LoadAndReconcile(context.Background())
	if err != nil {
		t.Fatalf("second LoadAndReconcile: %v", err)
	}
	if len(again) != 1 || repo.txSaves != 1 {
		t.Errorf("second reconcile created duplicates: %d transactions, %d saves", len(again), repo.txSaves)
	}
}

func TestTracker_LoadAndReconcile_NothingDueSkipsSaves(t *testing.T) {
	repo := &fakeRepo{
		transactions: []core.Transaction{{
			ID: "t-1", Kind: core.Income, Amount: core.Money{Cents: 100},
			Category: "Salary", Description: "pay", Date: core.NewDate(2024, 1, 1),
		}},
	}
	tr := NewTracker(repo, nil)

	transactions, _, err := tr.LoadAndReconcile(context.Background())
	if err != nil {
		t.Fatalf("LoadAndReconcile: %v", err)
	}
	if len(transactions) != 1 {
		t.Errorf("got %d transactions, want 1", len(transactions))
	}
	if repo.txSaves != 0 || repo.tplSaves != 0 {
		t.Errorf("unexpected saves with nothing due: %d/%d", repo.txSaves, repo.tplSaves)
	}
}

func TestTracker_AddTransaction(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{}
	tr := NewTracker(repo, pub)

	got, err := tr.AddTransaction(context.Background(), core.Transaction{
		Kind:        core.Expense,
		Amount:      core.Money{Cents: 2500},
		Category:    "Groceries",
		Description: "Fruit",
		Date:        core.NewDate(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if len(got) != 1 || got[0].ID == "" {
		t.Fatalf("transaction not appended with generated ID: %v", got)
	}
	if len(pub.synced) != 1 {
		t.Errorf("expected one sync message, got %v", pub.synced)
	}
}

func TestTracker_AddTransaction_RejectsInvalid(t *testing.T) {
	repo := &fakeRepo{}
	tr := NewTracker(repo, nil)

	_, err := tr.AddTransaction(context.Background(), core.Transaction{
		Kind:        core.Expense,
		Amount:      core.Money{Cents: -5},
		Category:    "Groceries",
		Description: "Fruit",
		Date:        core.NewDate(2024, 3, 1),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
	if repo.txSaves != 0 {
		t.Error("invalid transaction must not reach the repository")
	}
}

func TestTracker_DeleteTransaction(t *testing.T) {
	repo := &fakeRepo{
		transactions: []core.Transaction{
			{ID: "a", Kind: core.Expense, Amount: core.Money{Cents: 1}, Category: "x", Description: "x", Date: core.NewDate(2024, 1, 1)},
			{ID: "b", Kind: core.Expense, Amount: core.Money{Cents: 2}, Category: "y", Description: "y", Date: core.NewDate(2024, 1, 2)},
		},
	}
	pub := &recordingPublisher{}
	tr := NewTracker(repo, pub)

	got, err := tr.DeleteTransaction(context.Background(), "a")
	if err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("remaining = %v", got)
	}
	if len(pub.deleted) != 1 || pub.deleted[0] != "a" {
		t.Errorf("delete messages = %v", pub.deleted)
	}

	if _, err := tr.DeleteTransaction(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTracker_TemplateLifecycle(t *testing.T) {
	repo := &fakeRepo{}
	tr := NewTracker(repo, nil)

	templates, err := tr.AddTemplate(context.Background(), core.RecurringTemplate{
		Kind:        core.Income,
		Amount:      core.Money{Cents: 500000},
		Category:    "Salary",
		Description: "Monthly pay",
		Frequency:   core.Monthly,
		StartDate:   core.NewDate(2024, 1, 1),
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("AddTemplate: %v", err)
	}
	if len(templates) != 1 || templates[0].ID == "" {
		t.Fatalf("template not appended: %v", templates)
	}

	remaining, err := tr.DeleteTemplate(context.Background(), templates[0].ID)
	if err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining = %v", remaining)
	}
}

func TestTracker_Budgets_RefreshesSpent(t *testing.T) {
	repo := &fakeRepo{
		budgets: []core.Budget{{Category: "Groceries", Limit: core.Money{Cents: 50000}}},
		transactions: []core.Transaction{
			{ID: "1", Kind: core.Expense, Amount: core.Money{Cents: 12000}, Category: "Groceries", Description: "w1", Date: core.NewDate(2024, 3, 1)},
			{ID: "2", Kind: core.Expense, Amount: core.Money{Cents: 8000}, Category: "Groceries", Description: "w2", Date: core.NewDate(2024, 3, 8)},
			{ID: "3", Kind: core.Income, Amount: core.Money{Cents: 99999}, Category: "Groceries", Description: "refund", Date: core.NewDate(2024, 3, 9)},
		},
	}
	tr := NewTracker(repo, nil)

	budgets, err := tr.Budgets(context.Background())
	if err != nil {
		t.Fatalf("Budgets: %v", err)
	}
	if budgets[0].Spent.Cents != 20000 {
		t.Errorf("spent = %d, want 20000 (income ignored)", budgets[0].Spent.Cents)
	}
}

func TestComputeView(t *testing.T) {
	transactions := []core.Transaction{
		{ID: "1", Kind: core.Income, Amount: core.Money{Cents: 100000}, Category: "Salary", Description: "pay", Date: core.NewDate(2024, 1, 1)},
		{ID: "2", Kind: core.Expense, Amount: core.Money{Cents: 30000}, Category: "Groceries", Description: "food", Date: core.NewDate(2024, 1, 10)},
		{ID: "3", Kind: core.Expense, Amount: core.Money{Cents: 10000}, Category: "Travel", Description: "bus", Date: core.NewDate(2024, 2, 5)},
	}

	view := ComputeView(transactions, core.FilterOptions{Kind: core.Expense})
	if len(view.Transactions) != 2 {
		t.Fatalf("filtered %d, want 2", len(view.Transactions))
	}
	if view.Summary.TotalExpenses.Cents != 40000 || view.Summary.TotalIncome.Cents != 0 {
		t.Errorf("summary = %+v", view.Summary)
	}
	if len(view.Categories) != 2 || view.Categories[0].Category != "Groceries" {
		t.Errorf("category breakdown = %v", view.Categories)
	}
	if len(view.Monthly) != 2 {
		t.Errorf("monthly breakdown = %v", view.Monthly)
	}
}
