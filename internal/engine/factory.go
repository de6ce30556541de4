package engine

import (
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// NewProjectedTransaction builds the candidate transaction for one
// occurrence of a rule. A payment breakdown, when present, overrides the
// rule's nominal amount with its principal+interest total. An occurrence
// override may replace the amount or date, or suppress the occurrence
// entirely (nil return).
func NewProjectedTransaction(
	rule models.RecurrenceRule,
	txType models.TransactionType,
	srcType models.SourceType,
	occurrenceID string,
	date time.Time,
	breakdown *models.PaymentBreakdown,
) *models.Transaction {
	amount := rule.Amount
	if breakdown != nil {
		amount = breakdown.PrincipalPaid + breakdown.InterestPaid
	}

	if ov, ok := rule.Override(occurrenceID); ok {
		if ov.Skip {
			return nil
		}
		if ov.Amount != nil {
			amount = *ov.Amount
		}
		if ov.Date != "" {
			// Override dates are validated when the rule is saved.
			if d, err := ParseDate(ov.Date); err == nil {
				date = d
			}
		}
	}

	scheduled := FormatDate(date)
	return &models.Transaction{
		ID:              ProjectionID(ProjectionRef{SourceID: rule.ID, ScheduledDate: scheduled, OccurrenceID: occurrenceID}),
		Name:            rule.Name,
		Type:            txType,
		Category:        rule.Category,
		SourceType:      srcType,
		SourceID:        rule.ID,
		OccurrenceID:    occurrenceID,
		ProjectedAmount: amount,
		ScheduledDate:   scheduled,
		Status:          models.StatusProjected,
		Breakdown:       breakdown,
	}
}
