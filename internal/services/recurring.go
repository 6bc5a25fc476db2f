// Package services provides the recurrence engine and the application
// state controller that orchestrates it with persistence and the
// filtering/aggregation pipeline.
package services

import (
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// dueThresholds maps each frequency to the minimum number of whole days
// that must elapse since the last materialization. Monthly and yearly use
// fixed day counts (30/365) rather than calendar stepping; the
// approximation is intentional and kept so that materialization dates stay
// stable for existing data.
var dueThresholds = map[core.Frequency]int{
	core.Daily:   1,
	core.Weekly:  7,
	core.Monthly: 30,
	core.Yearly:  365,
}

// IsDue reports whether a template should materialize a transaction at now.
// A template that was never processed is due as soon as its start
// conditions are met. The end date boundary is inclusive.
func IsDue(t core.RecurringTemplate, now time.Time) bool {
	if !t.IsActive {
		return false
	}
	today := core.DateOf(now)
	if today.Before(t.StartDate.Time) {
		return false
	}
	if !t.EndDate.IsZero() && today.After(t.EndDate.Time) {
		return false
	}
	if t.LastProcessed.IsZero() {
		return true
	}
	threshold, ok := dueThresholds[t.Frequency]
	if !ok {
		return false
	}
	elapsed := int(today.Sub(t.LastProcessed.Time).Hours() / 24)
	return elapsed >= threshold
}

// ProcessTemplates materializes at most one transaction per due template,
// regardless of how many cadence periods have passed since the last run
// (missed periods are not back-filled). It never modifies its input; the
// returned template slice carries updated LastProcessed dates for the
// templates that fired and passes the rest through unchanged.
func ProcessTemplates(templates []core.RecurringTemplate, now time.Time) ([]core.Transaction, []core.RecurringTemplate) {
	today := core.DateOf(now)
	var created []core.Transaction
	updated := make([]core.RecurringTemplate, 0, len(templates))

	for _, t := range templates {
		if !IsDue(t, now) {
			updated = append(updated, t)
			continue
		}
		created = append(created, core.Transaction{
			ID:          uuid.NewString(),
			Kind:        t.Kind,
			Amount:      t.Amount,
			Category:    t.Category,
			Description: t.Description,
			Date:        today,
			IsRecurring: true,
			TemplateID:  t.ID,
		})
		t.LastProcessed = today
		updated = append(updated, t)
	}

	return created, updated
}
