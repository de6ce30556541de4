package service

import (
	"fmt"
	"time"

	"github.com/dkrylov/finplan/internal/engine"
	"github.com/dkrylov/finplan/internal/models"
	"github.com/dkrylov/finplan/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RateProvider supplies a suggested annual loan rate (central bank key
// rate plus margin). Optional: a nil provider disables rate defaulting.
type RateProvider interface {
	DefaultLoanRate() (float64, error)
}

// Service handles business logic: it loads rules and recorded
// transactions from the store, runs the projection engine over them and
// translates user actions on projections into stored records.
type Service struct {
	store     store.Store
	log       *logrus.Logger
	generator *engine.Generator
	merger    *engine.Merger
	credit    *engine.CreditCardCalculator
	rates     RateProvider

	warningThreshold float64
}

// NewService initializes a new service
func NewService(st store.Store, log *logrus.Logger, limits engine.Limits, warningThreshold float64, rates RateProvider) *Service {
	gen := engine.NewGenerator(limits)
	return &Service{
		store:            st,
		log:              log,
		generator:        gen,
		merger:           engine.NewMerger(gen),
		credit:           engine.NewCreditCardCalculator(limits),
		rates:            rates,
		warningThreshold: warningThreshold,
	}
}

// ForecastResult is the effective transaction timeline and the per-day
// balance map for a window.
type ForecastResult struct {
	Transactions []models.Transaction         `json:"transactions"`
	Balances     map[string]models.DayBalance `json:"balances"`
}

// Forecast merges projections with stored transactions over [start, end]
// and derives the day-by-day balance forecast from the given baseline.
func (s *Service) Forecast(start, end string, baseline float64) (*ForecastResult, error) {
	win, err := engine.ParseWindow(start, end)
	if err != nil {
		return nil, err
	}

	merged, err := s.mergedTransactions(win)
	if err != nil {
		return nil, err
	}

	balances := engine.DailyBalances(engine.BalanceInput{
		Baseline:         baseline,
		Transactions:     merged,
		Start:            win.Start,
		End:              win.End,
		WarningThreshold: s.warningThreshold,
	})

	s.log.Debugf("Forecast %s..%s: %d transactions, %d days", start, end, len(merged), len(balances))
	return &ForecastResult{Transactions: merged, Balances: balances}, nil
}

func (s *Service) mergedTransactions(win engine.Window) ([]models.Transaction, error) {
	incomes, err := s.store.ListIncomeSources()
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenseRules()
	if err != nil {
		return nil, err
	}
	stored, err := s.store.ListTransactions(engine.FormatDate(win.Start), engine.FormatDate(win.End))
	if err != nil {
		return nil, err
	}
	return s.merger.Merge(stored, incomes, expenses, win)
}

// findProjection regenerates the projection a mutation refers to. The
// window is padded around the scheduled date because a date override
// can move an occurrence away from the logical date the expansion
// filters on; the occurrence id pins the exact match.
func (s *Service) findProjection(ref engine.ProjectionRef) (*models.Transaction, error) {
	day, err := engine.ParseDate(ref.ScheduledDate)
	if err != nil {
		return nil, err
	}
	win := engine.Window{Start: day.AddDate(0, 0, -31), End: day.AddDate(0, 0, 31)}
	incomes, err := s.store.ListIncomeSources()
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenseRules()
	if err != nil {
		return nil, err
	}
	projections, err := s.generator.Generate(incomes, expenses, win)
	if err != nil {
		return nil, err
	}
	for i := range projections {
		if projections[i].SourceID == ref.SourceID && projections[i].OccurrenceID == ref.OccurrenceID {
			return &projections[i], nil
		}
	}
	return nil, fmt.Errorf("projection %s/%s on %s not found", ref.SourceID, ref.OccurrenceID, ref.ScheduledDate)
}

// CompleteProjection records a projected transaction as completed. The
// stored record inherits the projection's identity so it wins future
// merges; amount and date default to the projected ones.
func (s *Service) CompleteProjection(ref engine.ProjectionRef, actualAmount *float64, actualDate string) (*models.Transaction, error) {
	proj, err := s.findProjection(ref)
	if err != nil {
		return nil, err
	}

	tx := *proj
	tx.ID = uuid.NewString()
	tx.Status = models.StatusCompleted
	if actualAmount != nil {
		tx.ActualAmount = actualAmount
	} else {
		amount := proj.ProjectedAmount
		tx.ActualAmount = &amount
	}
	if actualDate != "" {
		if _, err := engine.ParseDate(actualDate); err != nil {
			return nil, err
		}
		tx.ActualDate = actualDate
	} else {
		tx.ActualDate = proj.ScheduledDate
	}

	if err := s.store.CreateTransaction(&tx); err != nil {
		return nil, err
	}
	s.log.Infof("Projection completed: %s (%s) amount %.2f", tx.Name, tx.OccurrenceID, tx.EffectiveAmount())
	return &tx, nil
}

// SkipProjection records a projected transaction as skipped, so it
// stops counting against the balance forecast.
func (s *Service) SkipProjection(ref engine.ProjectionRef) (*models.Transaction, error) {
	proj, err := s.findProjection(ref)
	if err != nil {
		return nil, err
	}

	tx := *proj
	tx.ID = uuid.NewString()
	tx.Status = models.StatusSkipped

	if err := s.store.CreateTransaction(&tx); err != nil {
		return nil, err
	}
	s.log.Infof("Projection skipped: %s (%s)", tx.Name, tx.OccurrenceID)
	return &tx, nil
}

// AddManualTransaction records a transaction with no backing rule.
func (s *Service) AddManualTransaction(tx *models.Transaction) error {
	if tx.Name == "" {
		return fmt.Errorf("transaction name is required")
	}
	if tx.Type != models.TypeIncome && tx.Type != models.TypeExpense {
		return fmt.Errorf("unknown transaction type %q", tx.Type)
	}
	if _, err := engine.ParseDate(tx.ScheduledDate); err != nil {
		return err
	}

	tx.ID = uuid.NewString()
	tx.SourceType = models.SourceManual
	tx.SourceID = ""
	tx.OccurrenceID = ""
	if tx.Status == "" {
		tx.Status = models.StatusCompleted
	}

	if err := s.store.CreateTransaction(tx); err != nil {
		return err
	}
	s.log.Infof("Manual transaction added: %s %.2f on %s", tx.Name, tx.ProjectedAmount, tx.ScheduledDate)
	return nil
}

// RevertTransaction deletes a stored record; a rule-backed occurrence
// reappears as a projection on the next forecast.
func (s *Service) RevertTransaction(id string) error {
	if err := s.store.DeleteTransaction(id); err != nil {
		return err
	}
	s.log.Infof("Transaction reverted: %s", id)
	return nil
}

// CreateIncomeSource validates and stores a new income source.
func (s *Service) CreateIncomeSource(src *models.IncomeSource) error {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	if err := src.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateIncomeSource(src); err != nil {
		return err
	}
	s.log.Infof("Income source created: %s (%s)", src.Name, src.Frequency)
	return nil
}

// UpdateIncomeSource validates and replaces an income source.
func (s *Service) UpdateIncomeSource(src *models.IncomeSource) error {
	if err := src.Validate(); err != nil {
		return err
	}
	return s.store.UpdateIncomeSource(src)
}

// DeleteIncomeSource removes an income source; its stored transactions
// survive as orphans by design.
func (s *Service) DeleteIncomeSource(id string) error {
	return s.store.DeleteIncomeSource(id)
}

// ListIncomeSources returns all income sources.
func (s *Service) ListIncomeSources() ([]models.IncomeSource, error) {
	return s.store.ListIncomeSources()
}

// CreateExpenseRule validates and stores a new expense rule. A cash
// loan created without an interest rate gets the suggested default rate
// from the key-rate provider.
func (s *Service) CreateExpenseRule(rule *models.ExpenseRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.Kind == models.ExpenseCashLoan && rule.Loan != nil && rule.Loan.InterestRate == 0 && s.rates != nil {
		rate, err := s.rates.DefaultLoanRate()
		if err != nil {
			s.log.Warnf("Failed to fetch default loan rate: %v", err)
		} else {
			rule.Loan.InterestRate = rate
			s.log.Infof("Defaulted loan rate for %s to %.2f%%", rule.Name, rate)
		}
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateExpenseRule(rule); err != nil {
		return err
	}
	s.log.Infof("Expense rule created: %s (%s/%s)", rule.Name, rule.Kind, rule.Frequency)
	return nil
}

// UpdateExpenseRule validates and replaces an expense rule.
func (s *Service) UpdateExpenseRule(rule *models.ExpenseRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	return s.store.UpdateExpenseRule(rule)
}

// DeleteExpenseRule removes an expense rule.
func (s *Service) DeleteExpenseRule(id string) error {
	return s.store.DeleteExpenseRule(id)
}

// ListExpenseRules returns all expense rules.
func (s *Service) ListExpenseRules() ([]models.ExpenseRule, error) {
	return s.store.ListExpenseRules()
}

// CreditPayoff computes the payoff summary and what-if scenarios for a
// credit card rule as of today.
func (s *Service) CreditPayoff(ruleID string) (*engine.PayoffSummary, []engine.PayoffScenario, error) {
	rule, err := s.store.GetExpenseRule(ruleID)
	if err != nil {
		return nil, nil, err
	}
	if rule.Kind != models.ExpenseCreditCard || rule.Credit == nil {
		return nil, nil, fmt.Errorf("rule %s is not a credit card", ruleID)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	summary := s.credit.Summary(*rule.Credit, today)
	scenarios := s.credit.Scenarios(*rule.Credit, today)
	return &summary, scenarios, nil
}
