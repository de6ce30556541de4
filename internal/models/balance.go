package models

// BalanceStatus classifies a forecast day against the warning threshold.
type BalanceStatus string

const (
	BalanceSafe    BalanceStatus = "safe"
	BalanceWarning BalanceStatus = "warning"
	BalanceDanger  BalanceStatus = "danger"
)

// DayBalance is the derived balance picture for a single forecast day.
// It is always recomputed from the merged transaction list, never mutated.
type DayBalance struct {
	Date           string        `json:"date"` // YYYY-MM-DD
	OpeningBalance float64       `json:"opening_balance"`
	ClosingBalance float64       `json:"closing_balance"`
	TotalIncome    float64       `json:"total_income"`
	TotalExpenses  float64       `json:"total_expenses"`
	Status         BalanceStatus `json:"status"`
	Transactions   []Transaction `json:"transactions,omitempty"`
}
