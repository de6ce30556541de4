package models

// TransactionType splits cash flow direction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// SourceType records where a transaction came from.
type SourceType string

const (
	SourceIncome  SourceType = "income_source"
	SourceExpense SourceType = "expense_rule"
	SourceManual  SourceType = "manual"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusProjected TransactionStatus = "projected"
	StatusCompleted TransactionStatus = "completed"
	StatusSkipped   TransactionStatus = "skipped"
)

// PaymentBreakdown carries the principal/interest split of a scheduled
// loan, credit card or installment payment.
type PaymentBreakdown struct {
	PrincipalPaid    float64 `json:"principal_paid"`
	InterestPaid     float64 `json:"interest_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
	PaymentNumber    int     `json:"payment_number"`
	TotalPayments    int     `json:"total_payments"`
}

// Transaction is a single dated cash movement, either projected by the
// engine or recorded by the user. Projected transactions carry a
// deterministic id and are regenerated on every query; stored transactions
// own an opaque id assigned by the persistence layer.
type Transaction struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Type            TransactionType   `json:"type"`
	Category        string            `json:"category"`
	SourceType      SourceType        `json:"source_type"`
	SourceID        string            `json:"source_id,omitempty"`
	OccurrenceID    string            `json:"occurrence_id,omitempty"`
	ProjectedAmount float64           `json:"projected_amount"`
	ActualAmount    *float64          `json:"actual_amount,omitempty"`
	ActualDate      string            `json:"actual_date,omitempty"` // YYYY-MM-DD
	ScheduledDate   string            `json:"scheduled_date"`        // YYYY-MM-DD
	Status          TransactionStatus `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	Breakdown       *PaymentBreakdown `json:"payment_breakdown,omitempty"`
}

// EffectiveDate is the date the transaction counts against: the actual
// date when recorded, otherwise the scheduled date.
func (t *Transaction) EffectiveDate() string {
	if t.ActualDate != "" {
		return t.ActualDate
	}
	return t.ScheduledDate
}

// EffectiveAmount is the amount the transaction counts for: the actual
// amount once completed, otherwise the projection.
func (t *Transaction) EffectiveAmount() float64 {
	if t.Status == StatusCompleted && t.ActualAmount != nil {
		return *t.ActualAmount
	}
	return t.ProjectedAmount
}
