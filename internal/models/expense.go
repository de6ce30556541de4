package models

import (
	"fmt"
	"time"
)

// ExpenseKind tags an expense rule with its payment mechanics.
type ExpenseKind string

const (
	ExpenseFixed       ExpenseKind = "fixed"
	ExpenseVariable    ExpenseKind = "variable"
	ExpenseOneTime     ExpenseKind = "one-time"
	ExpenseCashLoan    ExpenseKind = "cash_loan"
	ExpenseCreditCard  ExpenseKind = "credit_card"
	ExpenseInstallment ExpenseKind = "installment"
)

// CalculationType selects the loan amortization scheme.
type CalculationType string

const (
	CalculationAnnuity        CalculationType = "annuity"
	CalculationDifferentiated CalculationType = "differentiated"
)

// MinimumPaymentMethod defines how a credit card's minimum payment is derived.
type MinimumPaymentMethod string

const (
	MinimumPercentOnly         MinimumPaymentMethod = "percent_only"
	MinimumPercentPlusInterest MinimumPaymentMethod = "percent_plus_interest"
)

// PaymentStrategy defines how a credit card balance is paid down.
type PaymentStrategy string

const (
	StrategyMinimum     PaymentStrategy = "minimum"
	StrategyFixed       PaymentStrategy = "fixed"
	StrategyFullBalance PaymentStrategy = "full_balance"
)

// LoanConfig describes a cash loan paid down in fixed monthly payments.
type LoanConfig struct {
	PrincipalAmount float64         `json:"principal_amount"`
	CurrentBalance  float64         `json:"current_balance"`
	InterestRate    float64         `json:"interest_rate"` // annual percent
	TermMonths      int             `json:"term_months"`
	PaymentsMade    int             `json:"payments_made"`
	CalculationType CalculationType `json:"calculation_type"`
}

// CreditConfig describes a revolving credit card balance.
type CreditConfig struct {
	CreditLimit           float64              `json:"credit_limit"`
	CurrentBalance        float64              `json:"current_balance"`
	APR                   float64              `json:"apr"` // annual percent
	MinimumPaymentPercent float64              `json:"minimum_payment_percent"`
	MinimumPaymentFloor   float64              `json:"minimum_payment_floor"`
	MinimumPaymentMethod  MinimumPaymentMethod `json:"minimum_payment_method"`
	StatementDate         int                  `json:"statement_date"` // day of month 1-31
	DueDate               int                  `json:"due_date"`       // day of month 1-31
	PaymentStrategy       PaymentStrategy      `json:"payment_strategy"`
	FixedPaymentAmount    *float64             `json:"fixed_payment_amount,omitempty"`
}

// InstallmentConfig describes a purchase split into equal installments.
type InstallmentConfig struct {
	TotalAmount       float64  `json:"total_amount"`
	InstallmentCount  int      `json:"installment_count"`
	InstallmentsPaid  int      `json:"installments_paid"`
	InstallmentAmount float64  `json:"installment_amount"`
	HasInterest       bool     `json:"has_interest"`
	InterestRate      *float64 `json:"interest_rate,omitempty"`
}

// ExpenseRule is a recurrence rule with expense-specific payment mechanics.
// Exactly one of Loan/Credit/Installment is set, matching Kind.
type ExpenseRule struct {
	RecurrenceRule
	Kind        ExpenseKind        `json:"kind"`
	Loan        *LoanConfig        `json:"loan_config,omitempty"`
	Credit      *CreditConfig      `json:"credit_config,omitempty"`
	Installment *InstallmentConfig `json:"installment_config,omitempty"`
}

const dateLayout = "2006-01-02"

// Validate checks the kind/config pairing and the structural invariants
// the projection engine relies on.
func (r *ExpenseRule) Validate() error {
	if err := r.RecurrenceRule.Validate(); err != nil {
		return err
	}

	switch r.Kind {
	case ExpenseFixed, ExpenseVariable, ExpenseOneTime:
		if r.Loan != nil || r.Credit != nil || r.Installment != nil {
			return fmt.Errorf("expense kind %q must not carry a payment config", r.Kind)
		}
	case ExpenseCashLoan:
		if r.Loan == nil {
			return fmt.Errorf("expense kind %q requires a loan config", r.Kind)
		}
		if r.Credit != nil || r.Installment != nil {
			return fmt.Errorf("expense kind %q carries a mismatched payment config", r.Kind)
		}
		if r.Loan.TermMonths <= 0 {
			return fmt.Errorf("loan term must be positive, got %d", r.Loan.TermMonths)
		}
		if r.Loan.PaymentsMade < 0 || r.Loan.PaymentsMade > r.Loan.TermMonths {
			return fmt.Errorf("payments made %d out of range for term %d", r.Loan.PaymentsMade, r.Loan.TermMonths)
		}
		if r.Loan.CurrentBalance > r.Loan.PrincipalAmount {
			return fmt.Errorf("loan balance %.2f exceeds principal %.2f", r.Loan.CurrentBalance, r.Loan.PrincipalAmount)
		}
	case ExpenseCreditCard:
		if r.Credit == nil {
			return fmt.Errorf("expense kind %q requires a credit config", r.Kind)
		}
		if r.Loan != nil || r.Installment != nil {
			return fmt.Errorf("expense kind %q carries a mismatched payment config", r.Kind)
		}
		if r.Credit.CurrentBalance < 0 {
			return fmt.Errorf("credit card balance must not be negative, got %.2f", r.Credit.CurrentBalance)
		}
		if r.Credit.DueDate < 1 || r.Credit.DueDate > 31 {
			return fmt.Errorf("credit card due date must be a day of month 1-31, got %d", r.Credit.DueDate)
		}
	case ExpenseInstallment:
		if r.Installment == nil {
			return fmt.Errorf("expense kind %q requires an installment config", r.Kind)
		}
		if r.Loan != nil || r.Credit != nil {
			return fmt.Errorf("expense kind %q carries a mismatched payment config", r.Kind)
		}
		if r.Installment.InstallmentCount <= 0 {
			return fmt.Errorf("installment count must be positive, got %d", r.Installment.InstallmentCount)
		}
		if r.Installment.InstallmentsPaid < 0 || r.Installment.InstallmentsPaid > r.Installment.InstallmentCount {
			return fmt.Errorf("installments paid %d out of range for count %d", r.Installment.InstallmentsPaid, r.Installment.InstallmentCount)
		}
	default:
		return fmt.Errorf("unknown expense kind %q", r.Kind)
	}

	return nil
}

// Validate checks the date fields and override dates of a rule.
func (r *RecurrenceRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id is required")
	}
	if _, err := time.Parse(dateLayout, r.StartDate); err != nil {
		return fmt.Errorf("invalid start date %q: %w", r.StartDate, err)
	}
	if r.EndDate != "" {
		end, err := time.Parse(dateLayout, r.EndDate)
		if err != nil {
			return fmt.Errorf("invalid end date %q: %w", r.EndDate, err)
		}
		start, _ := time.Parse(dateLayout, r.StartDate)
		if end.Before(start) {
			return fmt.Errorf("end date %s precedes start date %s", r.EndDate, r.StartDate)
		}
	}
	for occID, ov := range r.OccurrenceOverrides {
		if ov.Date == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, ov.Date); err != nil {
			return fmt.Errorf("invalid override date %q for occurrence %s: %w", ov.Date, occID, err)
		}
	}
	return nil
}
