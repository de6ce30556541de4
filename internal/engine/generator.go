package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// Generator expands rule collections into projected transactions for a
// query window.
type Generator struct {
	occurrences *OccurrenceCalculator
	credit      *CreditCardCalculator
}

// NewGenerator returns a generator bounded by the given limits.
func NewGenerator(limits Limits) *Generator {
	return &Generator{
		occurrences: NewOccurrenceCalculator(limits),
		credit:      NewCreditCardCalculator(limits),
	}
}

// Generate produces the projected transactions of all active rules
// inside the window, sorted by scheduled date.
func (g *Generator) Generate(incomes []models.IncomeSource, expenses []models.ExpenseRule, win Window) ([]models.Transaction, error) {
	var out []models.Transaction

	for _, src := range incomes {
		txs, err := g.fromOccurrences(src.RecurrenceRule, models.TypeIncome, models.SourceIncome, win)
		if err != nil {
			return nil, err
		}
		out = append(out, txs...)
	}

	for _, rule := range expenses {
		if !rule.IsActive {
			continue
		}
		var (
			txs []models.Transaction
			err error
		)
		switch rule.Kind {
		case models.ExpenseCashLoan:
			txs, err = g.fromLoan(rule, win)
		case models.ExpenseCreditCard:
			txs, err = g.fromCreditCard(rule, win)
		case models.ExpenseInstallment:
			txs, err = g.fromInstallment(rule, win)
		case models.ExpenseFixed, models.ExpenseVariable, models.ExpenseOneTime:
			txs, err = g.fromOccurrences(rule.RecurrenceRule, models.TypeExpense, models.SourceExpense, win)
		default:
			err = fmt.Errorf("rule %s: unknown expense kind %q", rule.ID, rule.Kind)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, txs...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledDate != out[j].ScheduledDate {
			return out[i].ScheduledDate < out[j].ScheduledDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (g *Generator) fromOccurrences(rule models.RecurrenceRule, txType models.TransactionType, srcType models.SourceType, win Window) ([]models.Transaction, error) {
	occs, err := g.occurrences.Occurrences(rule, win)
	if err != nil {
		return nil, err
	}
	start, err := ParseDate(rule.StartDate)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	var out []models.Transaction
	for _, occ := range occs {
		occID := OccurrenceID(rule.ID, rule.Frequency, rule.ScheduleConfig, start, occ.LogicalDate)
		if tx := NewProjectedTransaction(rule, txType, srcType, occID, occ.Date, nil); tx != nil {
			out = append(out, *tx)
		}
	}
	return out, nil
}

// fromLoan projects the remaining amortization payments of a cash loan.
// The next payment is scheduled one month per payment already made past
// the rule's start date.
func (g *Generator) fromLoan(rule models.ExpenseRule, win Window) ([]models.Transaction, error) {
	cfg := rule.Loan
	if cfg == nil {
		return nil, fmt.Errorf("rule %s: cash loan without loan config", rule.ID)
	}
	start, err := ParseDate(rule.StartDate)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	remaining := cfg.TermMonths - cfg.PaymentsMade
	if remaining <= 0 || cfg.CurrentBalance <= balanceEpsilon {
		return nil, nil
	}

	sched := Amortize(AmortizationInput{
		Principal:          cfg.CurrentBalance,
		AnnualRate:         cfg.InterestRate,
		TermMonths:         remaining,
		StartDate:          addMonthsClamped(start, cfg.PaymentsMade, start.Day()),
		FirstPaymentNumber: cfg.PaymentsMade + 1,
		TotalPayments:      cfg.TermMonths,
		CalculationType:    cfg.CalculationType,
	})
	return g.fromSchedule(rule, sched.Periods, models.FrequencyMonthly, start, win), nil
}

// fromCreditCard projects the payoff simulation's payments, landing on
// the card's due day each month.
func (g *Generator) fromCreditCard(rule models.ExpenseRule, win Window) ([]models.Transaction, error) {
	cfg := rule.Credit
	if cfg == nil {
		return nil, fmt.Errorf("rule %s: credit card without credit config", rule.ID)
	}
	start, err := ParseDate(rule.StartDate)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	res := g.credit.Payoff(payoffInput(*cfg, start))
	return g.fromSchedule(rule, res.Periods, models.FrequencyMonthly, start, win), nil
}

func (g *Generator) fromInstallment(rule models.ExpenseRule, win Window) ([]models.Transaction, error) {
	cfg := rule.Installment
	if cfg == nil {
		return nil, fmt.Errorf("rule %s: installment without installment config", rule.ID)
	}
	start, err := ParseDate(rule.StartDate)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	periods := InstallmentSchedule(*cfg, start)
	return g.fromSchedule(rule, periods, models.FrequencyMonthly, start, win), nil
}

// fromSchedule turns computed payment periods into projected
// transactions. Schedule-driven rules key their occurrences by monthly
// logical period, so overrides and merge-matching behave like any other
// monthly rule.
func (g *Generator) fromSchedule(rule models.ExpenseRule, periods []PaymentPeriod, freq models.Frequency, start time.Time, win Window) []models.Transaction {
	rangeEnd := win.End
	if rule.EndDate != "" {
		if end, err := ParseDate(rule.EndDate); err == nil {
			rangeEnd = minDate(end, win.End)
		}
	}

	var out []models.Transaction
	for _, p := range periods {
		// Window membership uses the schedule date; adjustment applies
		// afterwards, matching the recurrence expansion.
		if p.Date.Before(win.Start) || p.Date.After(rangeEnd) {
			continue
		}
		date := adjustWeekend(p.Date, rule.WeekendAdjustment)
		occID := OccurrenceID(rule.ID, freq, rule.ScheduleConfig, start, p.Date)
		breakdown := &models.PaymentBreakdown{
			PrincipalPaid:    p.Principal,
			InterestPaid:     p.Interest,
			RemainingBalance: p.RemainingBalance,
			PaymentNumber:    p.PaymentNumber,
			TotalPayments:    p.TotalPayments,
		}
		if tx := NewProjectedTransaction(rule.RecurrenceRule, models.TypeExpense, models.SourceExpense, occID, date, breakdown); tx != nil {
			out = append(out, *tx)
		}
	}
	return out
}
