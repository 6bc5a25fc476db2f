package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewJSONStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	tracker := services.NewTracker(repo, nil)
	s := NewServer(":0", tracker)
	t.Cleanup(func() { s.rateLimiter.stop() })
	return s
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := doRequest(s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", rec.Code)
	}
	if rec := doRequest(s, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /readyz = %d, want 200", rec.Code)
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/transactions",
		`{"kind":"expense","amount":"1250.50","category":"Food & Dining","description":"Groceries","date":"2024-06-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/transactions = %d, body %s", rec.Code, rec.Body.String())
	}

	var created []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("got %d transactions, want 1", len(created))
	}
	if created[0].ID == "" {
		t.Error("created transaction has no ID")
	}
	if created[0].Amount.Cents != 125050 {
		t.Errorf("Amount.Cents = %d, want 125050", created[0].Amount.Cents)
	}

	rec = doRequest(s, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/transactions = %d", rec.Code)
	}
	var listed []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created[0].ID {
		t.Errorf("listed = %+v, want the created transaction", listed)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed JSON", `{`, http.StatusBadRequest},
		{"unknown kind", `{"kind":"transfer","amount":"10","category":"Other","description":"x","date":"2024-06-01"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"kind":"expense","amount":"0","category":"Other","description":"x","date":"2024-06-01"}`, http.StatusUnprocessableEntity},
		{"missing description", `{"kind":"expense","amount":"10","category":"Other","description":"","date":"2024-06-01"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"kind":"expense","amount":"10","category":"Other","description":"x","date":"01/06/2024"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/transactions",
		`{"kind":"income","amount":"50000","category":"Salary","description":"June salary","date":"2024-06-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST = %d", rec.Code)
	}
	var created []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = doRequest(s, http.MethodDelete, "/api/transactions/"+created[0].ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodDelete, "/api/transactions/"+created[0].ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", rec.Code)
	}
}

func TestTemplateLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/templates",
		`{"kind":"expense","amount":"599","category":"Entertainment","description":"Streaming subscription","frequency":"monthly","startDate":"2024-01-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/templates = %d, body %s", rec.Code, rec.Body.String())
	}

	var templates []core.RecurringTemplate
	if err := json.Unmarshal(rec.Body.Bytes(), &templates); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(templates) != 1 || !templates[0].IsActive {
		t.Fatalf("templates = %+v, want one active template", templates)
	}

	rec = doRequest(s, http.MethodDelete, "/api/templates/"+templates[0].ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE = %d", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/templates", "")
	var remaining []core.RecurringTemplate
	if err := json.Unmarshal(rec.Body.Bytes(), &remaining); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("templates after delete = %+v, want none", remaining)
	}
}

func TestViewEndpoint(t *testing.T) {
	s := newTestServer(t)

	bodies := []string{
		`{"kind":"income","amount":"50000","category":"Salary","description":"Salary","date":"2024-06-01"}`,
		`{"kind":"expense","amount":"10000","category":"Food & Dining","description":"Groceries","date":"2024-06-05"}`,
		`{"kind":"expense","amount":"5000","category":"Transportation","description":"Fuel","date":"2024-07-02"}`,
	}
	for _, body := range bodies {
		if rec := doRequest(s, http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
			t.Fatalf("POST = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(s, http.MethodGet, "/api/view", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/view = %d", rec.Code)
	}

	var view services.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Summary.TotalIncome.Cents != 5000000 {
		t.Errorf("TotalIncome = %d, want 5000000", view.Summary.TotalIncome.Cents)
	}
	if view.Summary.TotalExpenses.Cents != 1500000 {
		t.Errorf("TotalExpenses = %d, want 1500000", view.Summary.TotalExpenses.Cents)
	}
	if len(view.Monthly) != 2 {
		t.Errorf("Monthly = %+v, want two months", view.Monthly)
	}

	// filtered view only sees expenses
	rec = doRequest(s, http.MethodGet, "/api/view?kind=expense", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(view.Transactions) != 2 {
		t.Errorf("filtered transactions = %d, want 2", len(view.Transactions))
	}

	// a mutation invalidates the cached view
	rec = doRequest(s, http.MethodPost, "/api/transactions",
		`{"kind":"expense","amount":"2000","category":"Shopping","description":"Shoes","date":"2024-07-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST = %d", rec.Code)
	}
	rec = doRequest(s, http.MethodGet, "/api/view?kind=expense", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(view.Transactions) != 3 {
		t.Errorf("transactions after mutation = %d, want 3", len(view.Transactions))
	}
}

func TestViewBadFilter(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/view?dateFrom=junk", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET /api/view?dateFrom=junk = %d, want 400", rec.Code)
	}
}

func TestBudgetsEndpoint(t *testing.T) {
	s := newTestServer(t)

	if rec := doRequest(s, http.MethodPost, "/api/transactions",
		`{"kind":"expense","amount":"3000","category":"Food & Dining","description":"Dining out","date":"2024-06-10"}`); rec.Code != http.StatusCreated {
		t.Fatalf("POST transaction = %d", rec.Code)
	}

	rec := doRequest(s, http.MethodPut, "/api/budgets", `{"category":"Food & Dining","limit":"10000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /api/budgets = %d, body %s", rec.Code, rec.Body.String())
	}

	var budgets []core.Budget
	if err := json.Unmarshal(rec.Body.Bytes(), &budgets); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("budgets = %+v, want one", budgets)
	}
	if budgets[0].Spent.Cents != 300000 {
		t.Errorf("Spent.Cents = %d, want 300000", budgets[0].Spent.Cents)
	}
}

func TestGoalsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/goals",
		`{"name":"Emergency fund","target":"100000","deadline":"2025-12-31"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/goals = %d, body %s", rec.Code, rec.Body.String())
	}

	var goals []core.SavingsGoal
	if err := json.Unmarshal(rec.Body.Bytes(), &goals); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(goals) != 1 || goals[0].ID == "" {
		t.Fatalf("goals = %+v, want one with generated ID", goals)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/categories = %d", rec.Code)
	}

	var resp categoriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Expense) == 0 || len(resp.Income) == 0 {
		t.Errorf("categories = %+v, want non-empty curated lists", resp)
	}
}

func TestExportCSVEndpoint(t *testing.T) {
	s := newTestServer(t)

	if rec := doRequest(s, http.MethodPost, "/api/transactions",
		`{"kind":"expense","amount":"100","category":"Other","description":"Misc","date":"2024-06-01"}`); rec.Code != http.StatusCreated {
		t.Fatalf("POST = %d", rec.Code)
	}

	rec := doRequest(s, http.MethodGet, "/api/export/csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/export/csv = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "Date,Type,Category,Description,Amount (INR)") {
		t.Errorf("CSV body = %q", rec.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodPut, "/api/transactions", "{}")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT /api/transactions = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
		t.Errorf("Allow = %q", allow)
	}
}
