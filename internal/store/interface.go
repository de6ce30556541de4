package store

import "github.com/dkrylov/finplan/internal/models"

// Store is the persistence boundary of the service. The projection
// engine itself never touches it; the service layer loads rules and
// recorded transactions through this interface and feeds them to the
// engine as plain values.
type Store interface {
	ListIncomeSources() ([]models.IncomeSource, error)
	GetIncomeSource(id string) (*models.IncomeSource, error)
	CreateIncomeSource(src *models.IncomeSource) error
	UpdateIncomeSource(src *models.IncomeSource) error
	DeleteIncomeSource(id string) error

	ListExpenseRules() ([]models.ExpenseRule, error)
	GetExpenseRule(id string) (*models.ExpenseRule, error)
	CreateExpenseRule(rule *models.ExpenseRule) error
	UpdateExpenseRule(rule *models.ExpenseRule) error
	DeleteExpenseRule(id string) error

	// ListTransactions returns stored (user-recorded) transactions whose
	// effective date falls inside [start, end], plus any undated strays.
	ListTransactions(start, end string) ([]models.Transaction, error)
	GetTransaction(id string) (*models.Transaction, error)
	CreateTransaction(tx *models.Transaction) error
	DeleteTransaction(id string) error

	Close() error
}
