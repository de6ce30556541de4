package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dkrylov/finplan/internal/models"
)

// Postgres implements Store on a database/sql connection to Postgres.
// Frequency-specific structures (schedule config, overrides, payment
// configs, breakdowns) are kept as JSONB columns.
type Postgres struct {
	db *sql.DB
}

// NewPostgres initializes a Postgres-backed store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the underlying connection pool.
func (s *Postgres) Close() error {
	return s.db.Close()
}

func marshalJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jsonb column: %w", err)
	}
	return data, nil
}

func unmarshalJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode jsonb column: %w", err)
	}
	return nil
}

// ListIncomeSources retrieves all income sources.
func (s *Postgres) ListIncomeSources() ([]models.IncomeSource, error) {
	query := `
		SELECT id, name, category, amount, frequency, start_date, COALESCE(end_date, ''),
		       schedule_config, weekend_adjustment, is_active, occurrence_overrides
		FROM finplan.income_sources
		ORDER BY name`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list income sources: %w", err)
	}
	defer rows.Close()

	var out []models.IncomeSource
	for rows.Next() {
		var src models.IncomeSource
		if err := scanRule(rows, &src.RecurrenceRule); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// GetIncomeSource retrieves one income source by id.
func (s *Postgres) GetIncomeSource(id string) (*models.IncomeSource, error) {
	query := `
		SELECT id, name, category, amount, frequency, start_date, COALESCE(end_date, ''),
		       schedule_config, weekend_adjustment, is_active, occurrence_overrides
		FROM finplan.income_sources
		WHERE id = $1`
	var src models.IncomeSource
	if err := scanRule(s.db.QueryRow(query, id), &src.RecurrenceRule); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("income source %s not found", id)
		}
		return nil, fmt.Errorf("failed to find income source: %w", err)
	}
	return &src, nil
}

// CreateIncomeSource inserts a new income source.
func (s *Postgres) CreateIncomeSource(src *models.IncomeSource) error {
	cfg, overrides, err := ruleJSON(&src.RecurrenceRule)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO finplan.income_sources
			(id, name, category, amount, frequency, start_date, end_date,
			 schedule_config, weekend_adjustment, is_active, occurrence_overrides,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err = s.db.Exec(query, src.ID, src.Name, src.Category, src.Amount, src.Frequency,
		src.StartDate, src.EndDate, cfg, src.WeekendAdjustment, src.IsActive, overrides)
	if err != nil {
		return fmt.Errorf("failed to create income source: %w", err)
	}
	return nil
}

// UpdateIncomeSource replaces an income source row.
func (s *Postgres) UpdateIncomeSource(src *models.IncomeSource) error {
	cfg, overrides, err := ruleJSON(&src.RecurrenceRule)
	if err != nil {
		return err
	}
	query := `
		UPDATE finplan.income_sources
		SET name = $2, category = $3, amount = $4, frequency = $5, start_date = $6,
		    end_date = NULLIF($7, ''), schedule_config = $8, weekend_adjustment = $9,
		    is_active = $10, occurrence_overrides = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := s.db.Exec(query, src.ID, src.Name, src.Category, src.Amount, src.Frequency,
		src.StartDate, src.EndDate, cfg, src.WeekendAdjustment, src.IsActive, overrides)
	if err != nil {
		return fmt.Errorf("failed to update income source: %w", err)
	}
	return requireRow(res, "income source", src.ID)
}

// DeleteIncomeSource removes an income source.
func (s *Postgres) DeleteIncomeSource(id string) error {
	res, err := s.db.Exec(`DELETE FROM finplan.income_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete income source: %w", err)
	}
	return requireRow(res, "income source", id)
}

// ListExpenseRules retrieves all expense rules.
func (s *Postgres) ListExpenseRules() ([]models.ExpenseRule, error) {
	rows, err := s.db.Query(expenseSelect + ` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense rules: %w", err)
	}
	defer rows.Close()

	var out []models.ExpenseRule
	for rows.Next() {
		rule, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	return out, rows.Err()
}

const expenseSelect = `
	SELECT id, name, category, amount, frequency, start_date, COALESCE(end_date, ''),
	       schedule_config, weekend_adjustment, is_active, occurrence_overrides,
	       kind, loan_config, credit_config, installment_config
	FROM finplan.expense_rules`

// GetExpenseRule retrieves one expense rule by id.
func (s *Postgres) GetExpenseRule(id string) (*models.ExpenseRule, error) {
	rule, err := scanExpense(s.db.QueryRow(expenseSelect+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense rule %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find expense rule: %w", err)
	}
	return rule, nil
}

// CreateExpenseRule inserts a new expense rule.
func (s *Postgres) CreateExpenseRule(rule *models.ExpenseRule) error {
	args, err := expenseArgs(rule)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO finplan.expense_rules
			(id, name, category, amount, frequency, start_date, end_date,
			 schedule_config, weekend_adjustment, is_active, occurrence_overrides,
			 kind, loan_config, credit_config, installment_config,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11, $12, $13, $14, $15,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to create expense rule: %w", err)
	}
	return nil
}

// UpdateExpenseRule replaces an expense rule row.
func (s *Postgres) UpdateExpenseRule(rule *models.ExpenseRule) error {
	args, err := expenseArgs(rule)
	if err != nil {
		return err
	}
	query := `
		UPDATE finplan.expense_rules
		SET name = $2, category = $3, amount = $4, frequency = $5, start_date = $6,
		    end_date = NULLIF($7, ''), schedule_config = $8, weekend_adjustment = $9,
		    is_active = $10, occurrence_overrides = $11, kind = $12,
		    loan_config = $13, credit_config = $14, installment_config = $15,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update expense rule: %w", err)
	}
	return requireRow(res, "expense rule", rule.ID)
}

// DeleteExpenseRule removes an expense rule.
func (s *Postgres) DeleteExpenseRule(id string) error {
	res, err := s.db.Exec(`DELETE FROM finplan.expense_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense rule: %w", err)
	}
	return requireRow(res, "expense rule", id)
}

// ListTransactions retrieves stored transactions effective in [start, end].
func (s *Postgres) ListTransactions(start, end string) ([]models.Transaction, error) {
	query := `
		SELECT id, name, type, category, source_type, COALESCE(source_id, ''),
		       COALESCE(occurrence_id, ''), projected_amount, actual_amount,
		       COALESCE(actual_date, ''), scheduled_date, status, COALESCE(notes, ''),
		       payment_breakdown
		FROM finplan.transactions
		WHERE COALESCE(actual_date, scheduled_date) BETWEEN $1 AND $2
		ORDER BY COALESCE(actual_date, scheduled_date)`
	rows, err := s.db.Query(query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

// GetTransaction retrieves one stored transaction by id.
func (s *Postgres) GetTransaction(id string) (*models.Transaction, error) {
	query := `
		SELECT id, name, type, category, source_type, COALESCE(source_id, ''),
		       COALESCE(occurrence_id, ''), projected_amount, actual_amount,
		       COALESCE(actual_date, ''), scheduled_date, status, COALESCE(notes, ''),
		       payment_breakdown
		FROM finplan.transactions
		WHERE id = $1`
	tx, err := scanTransaction(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return tx, nil
}

// CreateTransaction inserts a stored transaction.
func (s *Postgres) CreateTransaction(tx *models.Transaction) error {
	breakdown, err := marshalJSON(tx.Breakdown)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO finplan.transactions
			(id, name, type, category, source_type, source_id, occurrence_id,
			 projected_amount, actual_amount, actual_date, scheduled_date, status,
			 notes, payment_breakdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9,
			NULLIF($10, ''), $11, $12, NULLIF($13, ''), $14,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err = s.db.Exec(query, tx.ID, tx.Name, tx.Type, tx.Category, tx.SourceType,
		tx.SourceID, tx.OccurrenceID, tx.ProjectedAmount, tx.ActualAmount,
		tx.ActualDate, tx.ScheduledDate, tx.Status, tx.Notes, breakdown)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// DeleteTransaction removes a stored transaction.
func (s *Postgres) DeleteTransaction(id string) error {
	res, err := s.db.Exec(`DELETE FROM finplan.transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRow(res, "transaction", id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(row rowScanner, rule *models.RecurrenceRule) error {
	var cfg, overrides []byte
	if err := row.Scan(&rule.ID, &rule.Name, &rule.Category, &rule.Amount, &rule.Frequency,
		&rule.StartDate, &rule.EndDate, &cfg, &rule.WeekendAdjustment, &rule.IsActive, &overrides); err != nil {
		return err
	}
	if err := unmarshalJSON(cfg, &rule.ScheduleConfig); err != nil {
		return err
	}
	return unmarshalJSON(overrides, &rule.OccurrenceOverrides)
}

func scanExpense(row rowScanner) (*models.ExpenseRule, error) {
	var rule models.ExpenseRule
	var cfg, overrides, loan, credit, installment []byte
	err := row.Scan(&rule.ID, &rule.Name, &rule.Category, &rule.Amount, &rule.Frequency,
		&rule.StartDate, &rule.EndDate, &cfg, &rule.WeekendAdjustment, &rule.IsActive,
		&overrides, &rule.Kind, &loan, &credit, &installment)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(cfg, &rule.ScheduleConfig); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(overrides, &rule.OccurrenceOverrides); err != nil {
		return nil, err
	}
	if len(loan) > 0 {
		rule.Loan = &models.LoanConfig{}
		if err := unmarshalJSON(loan, rule.Loan); err != nil {
			return nil, err
		}
	}
	if len(credit) > 0 {
		rule.Credit = &models.CreditConfig{}
		if err := unmarshalJSON(credit, rule.Credit); err != nil {
			return nil, err
		}
	}
	if len(installment) > 0 {
		rule.Installment = &models.InstallmentConfig{}
		if err := unmarshalJSON(installment, rule.Installment); err != nil {
			return nil, err
		}
	}
	return &rule, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var breakdown []byte
	err := row.Scan(&tx.ID, &tx.Name, &tx.Type, &tx.Category, &tx.SourceType, &tx.SourceID,
		&tx.OccurrenceID, &tx.ProjectedAmount, &tx.ActualAmount, &tx.ActualDate,
		&tx.ScheduledDate, &tx.Status, &tx.Notes, &breakdown)
	if err != nil {
		return nil, err
	}
	if len(breakdown) > 0 {
		tx.Breakdown = &models.PaymentBreakdown{}
		if err := unmarshalJSON(breakdown, tx.Breakdown); err != nil {
			return nil, err
		}
	}
	return &tx, nil
}

func ruleJSON(rule *models.RecurrenceRule) (cfg, overrides []byte, err error) {
	cfg, err = marshalJSON(rule.ScheduleConfig)
	if err != nil {
		return nil, nil, err
	}
	if rule.OccurrenceOverrides != nil {
		overrides, err = marshalJSON(rule.OccurrenceOverrides)
		if err != nil {
			return nil, nil, err
		}
	}
	return cfg, overrides, nil
}

func expenseArgs(rule *models.ExpenseRule) ([]interface{}, error) {
	cfg, overrides, err := ruleJSON(&rule.RecurrenceRule)
	if err != nil {
		return nil, err
	}
	var loan, credit, installment []byte
	if rule.Loan != nil {
		if loan, err = marshalJSON(rule.Loan); err != nil {
			return nil, err
		}
	}
	if rule.Credit != nil {
		if credit, err = marshalJSON(rule.Credit); err != nil {
			return nil, err
		}
	}
	if rule.Installment != nil {
		if installment, err = marshalJSON(rule.Installment); err != nil {
			return nil, err
		}
	}
	return []interface{}{rule.ID, rule.Name, rule.Category, rule.Amount, rule.Frequency,
		rule.StartDate, rule.EndDate, cfg, rule.WeekendAdjustment, rule.IsActive,
		overrides, rule.Kind, loan, credit, installment}, nil
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", entity, id)
	}
	return nil
}
