package engine

import (
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// InstallmentSchedule lays out the remaining payments of an equal-
// installment purchase, one per month starting the month after the last
// paid installment. The per-installment amount is taken as supplied; any
// interest was baked into it when the rule was created, so the breakdown
// reports the full amount as principal.
func InstallmentSchedule(cfg models.InstallmentConfig, start time.Time) []PaymentPeriod {
	if cfg.InstallmentCount <= 0 {
		return nil
	}
	amount := cfg.InstallmentAmount
	if amount <= 0 {
		amount = cfg.TotalAmount / float64(cfg.InstallmentCount)
	}

	day := start.Day()
	var periods []PaymentPeriod
	for n := cfg.InstallmentsPaid + 1; n <= cfg.InstallmentCount; n++ {
		periods = append(periods, PaymentPeriod{
			Date:             addMonthsClamped(start, n-1, day),
			Payment:          amount,
			Principal:        amount,
			Interest:         0,
			RemainingBalance: float64(cfg.InstallmentCount-n) * amount,
			PaymentNumber:    n,
			TotalPayments:    cfg.InstallmentCount,
		})
	}
	return periods
}
