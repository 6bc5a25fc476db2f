package http

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type createTransactionRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=income expense"`
	Amount      string `json:"amount" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required,max=200"`
	Date        string `json:"date" validate:"required"`
}

func (r createTransactionRequest) toTransaction() (core.Transaction, error) {
	if err := validate.Struct(r); err != nil {
		return core.Transaction{}, fmt.Errorf("invalid transaction request: %w", err)
	}

	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q: %w", r.Date, err)
	}

	return core.Transaction{
		Kind:        core.TransactionKind(r.Kind),
		Amount:      amount,
		Category:    sanitizeInput(r.Category),
		Description: sanitizeInput(r.Description),
		Date:        date,
	}, nil
}

type createTemplateRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=income expense"`
	Amount      string `json:"amount" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required,max=200"`
	Frequency   string `json:"frequency" validate:"required,oneof=daily weekly monthly yearly"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"omitempty"`
}

func (r createTemplateRequest) toTemplate() (core.RecurringTemplate, error) {
	if err := validate.Struct(r); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("invalid template request: %w", err)
	}

	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	start, err := core.ParseDate(r.StartDate)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("invalid start date %q: %w", r.StartDate, err)
	}

	var end core.Date
	if r.EndDate != "" {
		end, err = core.ParseDate(r.EndDate)
		if err != nil {
			return core.RecurringTemplate{}, fmt.Errorf("invalid end date %q: %w", r.EndDate, err)
		}
	}

	return core.RecurringTemplate{
		Kind:        core.TransactionKind(r.Kind),
		Amount:      amount,
		Category:    sanitizeInput(r.Category),
		Description: sanitizeInput(r.Description),
		Frequency:   core.Frequency(r.Frequency),
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
	}, nil
}

type budgetRequest struct {
	Category string `json:"category" validate:"required"`
	Limit    string `json:"limit" validate:"required"`
}

func (r budgetRequest) toBudget() (core.Budget, error) {
	if err := validate.Struct(r); err != nil {
		return core.Budget{}, fmt.Errorf("invalid budget request: %w", err)
	}
	limit, err := core.ParseAmount(r.Limit)
	if err != nil {
		return core.Budget{}, fmt.Errorf("invalid limit %q: %w", r.Limit, err)
	}
	return core.Budget{Category: sanitizeInput(r.Category), Limit: limit}, nil
}

type savingsGoalRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Target   string `json:"target" validate:"required"`
	Current  string `json:"current" validate:"omitempty"`
	Deadline string `json:"deadline" validate:"omitempty"`
}

func (r savingsGoalRequest) toGoal() (core.SavingsGoal, error) {
	if err := validate.Struct(r); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("invalid savings goal request: %w", err)
	}
	target, err := core.ParseAmount(r.Target)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("invalid target %q: %w", r.Target, err)
	}

	goal := core.SavingsGoal{Name: sanitizeInput(r.Name), Target: target}
	if r.Current != "" {
		current, err := core.ParseAmount(r.Current)
		if err != nil {
			return core.SavingsGoal{}, fmt.Errorf("invalid current amount %q: %w", r.Current, err)
		}
		goal.Current = current
	}
	if r.Deadline != "" {
		deadline, err := core.ParseDate(r.Deadline)
		if err != nil {
			return core.SavingsGoal{}, fmt.Errorf("invalid deadline %q: %w", r.Deadline, err)
		}
		goal.Deadline = deadline
	}
	return goal, nil
}

// parseFilterOptions reads the filter query parameters. Unset parameters
// leave the matching criterion disabled.
func parseFilterOptions(q url.Values) (core.FilterOptions, error) {
	var opts core.FilterOptions

	if v := strings.TrimSpace(q.Get("kind")); v != "" && v != "all" {
		kind := core.TransactionKind(v)
		if err := kind.Validate(); err != nil {
			return core.FilterOptions{}, fmt.Errorf("invalid kind %q: %w", v, err)
		}
		opts.Kind = kind
	}
	opts.Category = strings.TrimSpace(q.Get("category"))
	opts.SearchTerm = strings.TrimSpace(q.Get("search"))

	if v := strings.TrimSpace(q.Get("dateFrom")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.FilterOptions{}, fmt.Errorf("invalid dateFrom %q: %w", v, err)
		}
		opts.DateFrom = d
	}
	if v := strings.TrimSpace(q.Get("dateTo")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.FilterOptions{}, fmt.Errorf("invalid dateTo %q: %w", v, err)
		}
		opts.DateTo = d
	}
	if v := strings.TrimSpace(q.Get("amountMin")); v != "" {
		m, err := core.ParseAmount(v)
		if err != nil {
			return core.FilterOptions{}, fmt.Errorf("invalid amountMin %q: %w", v, err)
		}
		opts.AmountMin = &m
	}
	if v := strings.TrimSpace(q.Get("amountMax")); v != "" {
		m, err := core.ParseAmount(v)
		if err != nil {
			return core.FilterOptions{}, fmt.Errorf("invalid amountMax %q: %w", v, err)
		}
		opts.AmountMax = &m
	}

	return opts, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
