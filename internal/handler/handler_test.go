package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkrylov/finplan/internal/engine"
	"github.com/dkrylov/finplan/internal/models"
	"github.com/dkrylov/finplan/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type stubStore struct {
	incomes      []models.IncomeSource
	expenses     []models.ExpenseRule
	transactions []models.Transaction
}

func (s *stubStore) ListIncomeSources() ([]models.IncomeSource, error) { return s.incomes, nil }

func (s *stubStore) GetIncomeSource(id string) (*models.IncomeSource, error) {
	for i := range s.incomes {
		if s.incomes[i].ID == id {
			return &s.incomes[i], nil
		}
	}
	return nil, fmt.Errorf("income source %s not found", id)
}

func (s *stubStore) CreateIncomeSource(src *models.IncomeSource) error {
	s.incomes = append(s.incomes, *src)
	return nil
}

func (s *stubStore) UpdateIncomeSource(src *models.IncomeSource) error { return nil }

func (s *stubStore) DeleteIncomeSource(id string) error { return nil }

func (s *stubStore) ListExpenseRules() ([]models.ExpenseRule, error) { return s.expenses, nil }

func (s *stubStore) GetExpenseRule(id string) (*models.ExpenseRule, error) {
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			return &s.expenses[i], nil
		}
	}
	return nil, fmt.Errorf("expense rule %s not found", id)
}

func (s *stubStore) CreateExpenseRule(rule *models.ExpenseRule) error {
	s.expenses = append(s.expenses, *rule)
	return nil
}

func (s *stubStore) UpdateExpenseRule(rule *models.ExpenseRule) error { return nil }

func (s *stubStore) DeleteExpenseRule(id string) error { return nil }

func (s *stubStore) ListTransactions(start, end string) ([]models.Transaction, error) {
	return s.transactions, nil
}

func (s *stubStore) GetTransaction(id string) (*models.Transaction, error) {
	return nil, fmt.Errorf("transaction %s not found", id)
}

func (s *stubStore) CreateTransaction(tx *models.Transaction) error {
	s.transactions = append(s.transactions, *tx)
	return nil
}

func (s *stubStore) DeleteTransaction(id string) error { return nil }

func (s *stubStore) Close() error { return nil }

type stubRates struct{ rate float64 }

func (s stubRates) GetKeyRate() (float64, error) { return s.rate, nil }

func (s stubRates) DefaultLoanRate() (float64, error) { return s.rate + 5, nil }

func newTestRouter(st *stubStore) *mux.Router {
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := service.NewService(st, log, engine.DefaultLimits(), 100, stubRates{rate: 16})
	h := NewHandler(svc, stubRates{rate: 16}, log)
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func rentRule() models.ExpenseRule {
	day := 1
	return models.ExpenseRule{
		RecurrenceRule: models.RecurrenceRule{
			ID:                "rent-1",
			Name:              "Rent",
			Category:          "housing",
			Amount:            900,
			Frequency:         models.FrequencyMonthly,
			StartDate:         "2025-01-01",
			ScheduleConfig:    models.ScheduleConfig{DayOfMonth: &day},
			WeekendAdjustment: models.WeekendNone,
			IsActive:          true,
		},
		Kind: models.ExpenseFixed,
	}
}

func TestForecastEndpoint(t *testing.T) {
	router := newTestRouter(&stubStore{expenses: []models.ExpenseRule{rentRule()}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?start=2025-01-01&end=2025-02-28&balance=2000", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result service.ForecastResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Errorf("expected 2 rent payments, got %d", len(result.Transactions))
	}
	if got := result.Balances["2025-02-28"].ClosingBalance; got != 200 {
		t.Errorf("end balance = %.2f, want 200", got)
	}
}

func TestForecastEndpointRequiresWindow(t *testing.T) {
	router := newTestRouter(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast?start=2025-01-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateIncomeSourceEndpoint(t *testing.T) {
	st := &stubStore{}
	router := newTestRouter(st)

	body := `{
		"name": "Salary",
		"category": "salary",
		"amount": 3000,
		"frequency": "monthly",
		"start_date": "2025-01-01",
		"schedule_config": {"day_of_month": 15},
		"weekend_adjustment": "before",
		"is_active": true
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/income-sources", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(st.incomes) != 1 {
		t.Fatalf("expected 1 stored income source, got %d", len(st.incomes))
	}
	if st.incomes[0].ID == "" {
		t.Error("created source should carry a generated id")
	}
}

func TestCreateIncomeSourceEndpointRejectsBadDate(t *testing.T) {
	router := newTestRouter(&stubStore{})

	body := `{"name": "Salary", "amount": 3000, "frequency": "monthly", "start_date": "01/15/2025", "is_active": true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/income-sources", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCompleteProjectionEndpoint(t *testing.T) {
	st := &stubStore{expenses: []models.ExpenseRule{rentRule()}}
	router := newTestRouter(st)

	ref := engine.ProjectionRef{SourceID: "rent-1", ScheduledDate: "2025-01-01", OccurrenceID: "rent-1_2025-01"}
	url := "/api/v1/transactions/" + engine.ProjectionID(ref) + "/complete"
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"actual_amount": 910}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(st.transactions) != 1 {
		t.Fatalf("expected 1 stored transaction, got %d", len(st.transactions))
	}
	tx := st.transactions[0]
	if tx.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", tx.Status)
	}
	if tx.ActualAmount == nil || *tx.ActualAmount != 910 {
		t.Errorf("actual amount = %v, want 910", tx.ActualAmount)
	}
}

func TestCompleteProjectionEndpointRejectsMalformedID(t *testing.T) {
	router := newTestRouter(&stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/not-a-projection/complete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestKeyRateEndpoint(t *testing.T) {
	router := newTestRouter(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/key-rate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["key_rate"] != 16 {
		t.Errorf("key rate = %.2f, want 16", payload["key_rate"])
	}
}
