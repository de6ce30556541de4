package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dkrylov/finplan/internal/engine"
	"github.com/dkrylov/finplan/internal/models"
	"github.com/dkrylov/finplan/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// KeyRateProvider exposes the central bank key rate for the info endpoint.
type KeyRateProvider interface {
	GetKeyRate() (float64, error)
}

// Handler translates HTTP requests into service calls.
type Handler struct {
	service *service.Service
	rates   KeyRateProvider
	log     *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, rates KeyRateProvider, log *logrus.Logger) *Handler {
	return &Handler{service: svc, rates: rates, log: log}
}

// RegisterRoutes attaches all API routes to the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/forecast", h.forecast).Methods(http.MethodGet)

	api.HandleFunc("/income-sources", h.listIncomeSources).Methods(http.MethodGet)
	api.HandleFunc("/income-sources", h.createIncomeSource).Methods(http.MethodPost)
	api.HandleFunc("/income-sources/{id}", h.updateIncomeSource).Methods(http.MethodPut)
	api.HandleFunc("/income-sources/{id}", h.deleteIncomeSource).Methods(http.MethodDelete)

	api.HandleFunc("/expense-rules", h.listExpenseRules).Methods(http.MethodGet)
	api.HandleFunc("/expense-rules", h.createExpenseRule).Methods(http.MethodPost)
	api.HandleFunc("/expense-rules/{id}", h.updateExpenseRule).Methods(http.MethodPut)
	api.HandleFunc("/expense-rules/{id}", h.deleteExpenseRule).Methods(http.MethodDelete)
	api.HandleFunc("/expense-rules/{id}/payoff", h.creditPayoff).Methods(http.MethodGet)
	api.HandleFunc("/expense-rules/{id}/payoff/scenarios", h.creditPayoffScenarios).Methods(http.MethodGet)

	api.HandleFunc("/transactions", h.addManualTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/complete", h.completeProjection).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}/skip", h.skipProjection).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", h.revertTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/key-rate", h.keyRate).Methods(http.MethodGet)
}

func (h *Handler) forecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := q.Get("start")
	end := q.Get("end")
	if start == "" || end == "" {
		h.respondError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	baseline := 0.0
	if raw := q.Get("balance"); raw != "" {
		var err error
		if baseline, err = strconv.ParseFloat(raw, 64); err != nil {
			h.respondError(w, http.StatusBadRequest, "balance must be a number")
			return
		}
	}

	result, err := h.service.Forecast(start, end, baseline)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handler) listIncomeSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.service.ListIncomeSources()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, sources)
}

func (h *Handler) createIncomeSource(w http.ResponseWriter, r *http.Request) {
	var src models.IncomeSource
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.CreateIncomeSource(&src); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, src)
}

func (h *Handler) updateIncomeSource(w http.ResponseWriter, r *http.Request) {
	var src models.IncomeSource
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	src.ID = mux.Vars(r)["id"]
	if err := h.service.UpdateIncomeSource(&src); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, src)
}

func (h *Handler) deleteIncomeSource(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteIncomeSource(mux.Vars(r)["id"]); err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listExpenseRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListExpenseRules()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, rules)
}

func (h *Handler) createExpenseRule(w http.ResponseWriter, r *http.Request) {
	var rule models.ExpenseRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.CreateExpenseRule(&rule); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, rule)
}

func (h *Handler) updateExpenseRule(w http.ResponseWriter, r *http.Request) {
	var rule models.ExpenseRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rule.ID = mux.Vars(r)["id"]
	if err := h.service.UpdateExpenseRule(&rule); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, rule)
}

func (h *Handler) deleteExpenseRule(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteExpenseRule(mux.Vars(r)["id"]); err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) creditPayoff(w http.ResponseWriter, r *http.Request) {
	summary, scenarios, err := h.service.CreditPayoff(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary":   summary,
		"scenarios": scenarios,
	})
}

func (h *Handler) creditPayoffScenarios(w http.ResponseWriter, r *http.Request) {
	_, scenarios, err := h.service.CreditPayoff(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, scenarios)
}

func (h *Handler) addManualTransaction(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.service.AddManualTransaction(&tx); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, tx)
}

type completeRequest struct {
	ActualAmount *float64 `json:"actual_amount,omitempty"`
	ActualDate   string   `json:"actual_date,omitempty"`
}

func (h *Handler) completeProjection(w http.ResponseWriter, r *http.Request) {
	ref, err := engine.ParseProjectionID(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req completeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	tx, err := h.service.CompleteProjection(ref, req.ActualAmount, req.ActualDate)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, tx)
}

func (h *Handler) skipProjection(w http.ResponseWriter, r *http.Request) {
	ref, err := engine.ParseProjectionID(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.service.SkipProjection(ref)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, tx)
}

func (h *Handler) revertTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RevertTransaction(mux.Vars(r)["id"]); err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) keyRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.GetKeyRate()
	if err != nil {
		h.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]float64{"key_rate": rate})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.log.Warnf("Request failed (%d): %s", status, message)
	h.respondJSON(w, status, map[string]string{"error": message})
}
