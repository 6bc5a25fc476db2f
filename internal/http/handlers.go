package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/services"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	opts, err := parseFilterOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := s.tracker.Transactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	writeJSON(w, http.StatusOK, core.Filter(transactions, opts))
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	transactions, err := s.tracker.AddTransaction(r.Context(), t)
	if err != nil {
		slog.ErrorContext(r.Context(), "Add transaction error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.viewCache.Clear()
	writeJSON(w, http.StatusCreated, transactions)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	transactions, err := s.tracker.DeleteTransaction(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	s.viewCache.Clear()
	writeJSON(w, http.StatusOK, transactions)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		templates, err := s.tracker.Templates(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List templates error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load templates")
			return
		}
		writeJSON(w, http.StatusOK, templates)
	case http.MethodPost:
		var req createTemplateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		rt, err := req.toTemplate()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		templates, err := s.tracker.AddTemplate(r.Context(), rt)
		if err != nil {
			slog.ErrorContext(r.Context(), "Add template error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save template")
			return
		}
		writeJSON(w, http.StatusCreated, templates)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleTemplateByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, "DELETE")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	templates, err := s.tracker.DeleteTemplate(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete template error", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete template")
		return
	}

	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		budgets, err := s.tracker.Budgets(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List budgets error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load budgets")
			return
		}
		writeJSON(w, http.StatusOK, budgets)
	case http.MethodPut, http.MethodPost:
		var req budgetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		b, err := req.toBudget()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		if _, err := s.tracker.SetBudget(r.Context(), b); err != nil {
			slog.ErrorContext(r.Context(), "Set budget error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save budget")
			return
		}

		// re-read through Budgets so the response carries current Spent
		budgets, err := s.tracker.Budgets(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List budgets error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load budgets")
			return
		}
		writeJSON(w, http.StatusOK, budgets)
	default:
		methodNotAllowed(w, "GET, POST, PUT")
	}
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goals, err := s.tracker.SavingsGoals(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "List savings goals error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load savings goals")
			return
		}
		writeJSON(w, http.StatusOK, goals)
	case http.MethodPost:
		var req savingsGoalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		g, err := req.toGoal()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		goals, err := s.tracker.AddSavingsGoal(r.Context(), g)
		if err != nil {
			slog.ErrorContext(r.Context(), "Add savings goal error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save savings goal")
			return
		}
		writeJSON(w, http.StatusCreated, goals)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleView returns the filtered dashboard view: transaction list,
// summary totals, category breakdown, and monthly trend.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	opts, err := parseFilterOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := r.URL.Query().Encode()
	if view, found := s.viewCache.Get(cacheKey); found {
		slog.DebugContext(r.Context(), "View cache hit", "key", cacheKey)
		writeJSON(w, http.StatusOK, view)
		return
	}

	transactions, err := s.tracker.Transactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "View error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	view := services.ComputeView(transactions, opts)
	s.viewCache.Set(cacheKey, view)
	writeJSON(w, http.StatusOK, view)
}

type categoriesResponse struct {
	Expense []string `json:"expense"`
	Income  []string `json:"income"`
	Used    []string `json:"used"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	transactions, err := s.tracker.Transactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	writeJSON(w, http.StatusOK, categoriesResponse{
		Expense: core.ExpenseCategories,
		Income:  core.IncomeCategories,
		Used:    core.UniqueCategories(transactions),
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	transactions, err := s.filteredTransactions(w, r)
	if err != nil {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteCSV(w, transactions); err != nil {
		slog.ErrorContext(r.Context(), "CSV export error", "error", err)
	}
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	transactions, err := s.filteredTransactions(w, r)
	if err != nil {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions-report.txt"`)
	if err := export.WriteReport(w, transactions); err != nil {
		slog.ErrorContext(r.Context(), "Report export error", "error", err)
	}
}

// filteredTransactions loads and filters transactions for the export
// handlers, writing the error response itself on failure.
func (s *Server) filteredTransactions(w http.ResponseWriter, r *http.Request) ([]core.Transaction, error) {
	opts, err := parseFilterOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, err
	}

	transactions, err := s.tracker.Transactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return nil, err
	}

	return core.Filter(transactions, opts), nil
}
