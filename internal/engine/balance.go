package engine

import (
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// BalanceInput is one day-by-day balance forecast computation.
type BalanceInput struct {
	// Baseline is the account balance entering the first day of the range.
	Baseline float64

	// Transactions is the merged (projected + stored) timeline.
	Transactions []models.Transaction

	Start time.Time
	End   time.Time

	// WarningThreshold classifies a day as warning when its closing
	// balance falls below it (danger when below zero).
	WarningThreshold float64
}

// DailyBalances walks the range one day at a time: each day's opening
// balance is the previous day's closing balance, income and expenses use
// the actual amount once completed, and skipped transactions contribute
// nothing while staying listed for display.
func DailyBalances(in BalanceInput) map[string]models.DayBalance {
	byDate := make(map[string][]models.Transaction)
	for _, tx := range in.Transactions {
		key := tx.EffectiveDate()
		byDate[key] = append(byDate[key], tx)
	}

	out := make(map[string]models.DayBalance)
	running := in.Baseline
	for d := in.Start; !d.After(in.End); d = d.AddDate(0, 0, 1) {
		key := FormatDate(d)
		day := models.DayBalance{
			Date:           key,
			OpeningBalance: running,
			Transactions:   byDate[key],
		}

		for _, tx := range day.Transactions {
			if tx.Status == models.StatusSkipped {
				continue
			}
			switch tx.Type {
			case models.TypeIncome:
				day.TotalIncome += tx.EffectiveAmount()
			case models.TypeExpense:
				day.TotalExpenses += tx.EffectiveAmount()
			}
		}

		day.ClosingBalance = day.OpeningBalance + day.TotalIncome - day.TotalExpenses
		switch {
		case day.ClosingBalance < 0:
			day.Status = models.BalanceDanger
		case day.ClosingBalance < in.WarningThreshold:
			day.Status = models.BalanceWarning
		default:
			day.Status = models.BalanceSafe
		}

		out[key] = day
		running = day.ClosingBalance
	}
	return out
}
