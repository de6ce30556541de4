package engine

import (
	"sort"
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// PayoffInput describes one credit card payoff simulation.
type PayoffInput struct {
	Balance float64
	APR     float64 // percent

	MinimumPaymentPercent float64
	MinimumPaymentFloor   float64
	MinimumPaymentMethod  models.MinimumPaymentMethod

	Strategy models.PaymentStrategy

	// FixedPayment is the constant payment for the fixed strategy;
	// 0 falls back to the minimum payment at the starting balance.
	FixedPayment float64

	StartDate time.Time
	// DueDay is the day of month payments land on; 0 uses StartDate's day.
	DueDay int
}

// PayoffResult is the simulated payoff schedule plus its aggregates.
type PayoffResult struct {
	Periods        []PaymentPeriod
	Months         int
	TotalInterest  float64
	TotalPrincipal float64
	TotalPaid      float64
	PaidOff        bool

	// NeverPayable marks simulations stopped by the stagnation detector
	// or the period cap without reaching a zero balance.
	NeverPayable bool
}

// PayoffSummary condenses a simulation for display.
type PayoffSummary struct {
	PayoffDate           string  `json:"payoff_date,omitempty"`  // YYYY-MM-DD, empty when never payable
	MonthsToPayoff       int     `json:"months_to_payoff"`       // -1 when never payable
	NeverPayable         bool    `json:"never_payable"`
	TotalInterest        float64 `json:"total_interest"`
	TotalToPay           float64 `json:"total_to_pay"`
	CurrentMonthInterest float64 `json:"current_month_interest"`

	// MinimumPaymentTrap flags a payment barely above the running
	// interest (payment <= 1.1x interest), i.e. near-zero progress.
	MinimumPaymentTrap bool `json:"minimum_payment_trap"`
}

// PayoffScenario is one what-if alternative to the current schedule.
type PayoffScenario struct {
	Name            string  `json:"name"`
	MonthlyPayment  float64 `json:"monthly_payment"`
	Months          int     `json:"months"`
	TotalInterest   float64 `json:"total_interest"`
	InterestSavings float64 `json:"interest_savings"`
	MonthsSaved     int     `json:"months_saved"`
}

// CreditCardCalculator simulates credit card balance decay under the
// minimum, fixed and full-balance payment strategies.
type CreditCardCalculator struct {
	limits Limits
}

// NewCreditCardCalculator returns a calculator bounded by the given limits.
func NewCreditCardCalculator(limits Limits) *CreditCardCalculator {
	return &CreditCardCalculator{limits: limits.withDefaults()}
}

// minimumPayment computes the declining minimum for a balance. With the
// percent_plus_interest method the period's interest is added before the
// floor applies.
func (c *CreditCardCalculator) minimumPayment(in PayoffInput, balance, interest float64) float64 {
	payment := balance * in.MinimumPaymentPercent / 100
	if in.MinimumPaymentMethod == models.MinimumPercentPlusInterest {
		payment += interest
	}
	if payment < in.MinimumPaymentFloor {
		payment = in.MinimumPaymentFloor
	}
	return payment
}

// Payoff runs the month-by-month simulation. The minimum strategy
// recomputes the payment from the then-current balance every period; the
// other strategies pay a constant amount. New charges are not modeled.
func (c *CreditCardCalculator) Payoff(in PayoffInput) PayoffResult {
	res := PayoffResult{}
	balance := in.Balance
	if balance <= balanceEpsilon {
		res.PaidOff = true
		return res
	}

	r := in.APR / 1200
	fixed := in.FixedPayment
	if fixed <= 0 {
		fixed = c.minimumPayment(in, balance, balance*r)
	}

	date := firstDueDate(in.StartDate, in.DueDay)
	day := date.Day()
	if in.DueDay > 0 {
		day = in.DueDay
	}

	stagnant := 0
	for period := 0; period < c.limits.MaxPayoffPeriods && balance > balanceEpsilon; period++ {
		interest := balance * r

		var payment float64
		switch in.Strategy {
		case models.StrategyFixed:
			payment = fixed
		case models.StrategyFullBalance:
			payment = balance + interest
		default: // minimum
			payment = c.minimumPayment(in, balance, interest)
		}

		// The payment itself is never reduced (a floor payment stays a
		// floor payment); only the principal applied is capped at the
		// remaining balance.
		principal := payment - interest
		if principal < 0 {
			principal = 0
		}
		if principal > balance {
			principal = balance
		}
		balance -= principal

		res.Periods = append(res.Periods, PaymentPeriod{
			Date:             addMonthsClamped(date, period, day),
			Payment:          payment,
			Principal:        principal,
			Interest:         interest,
			RemainingBalance: balance,
			PaymentNumber:    period + 1,
		})
		res.TotalInterest += interest
		res.TotalPrincipal += principal
		res.TotalPaid += payment

		if in.Strategy == models.StrategyMinimum || in.Strategy == "" {
			if principal < balanceEpsilon {
				stagnant++
				if stagnant > c.limits.StagnantPeriods {
					res.NeverPayable = true
					break
				}
			} else {
				stagnant = 0
			}
		}
	}

	res.Months = len(res.Periods)
	res.PaidOff = balance <= balanceEpsilon
	if !res.PaidOff {
		res.NeverPayable = true
	}
	return res
}

// Summary wraps a payoff simulation of the configured strategy into the
// display figures.
func (c *CreditCardCalculator) Summary(cfg models.CreditConfig, start time.Time) PayoffSummary {
	in := payoffInput(cfg, start)
	res := c.Payoff(in)

	interest := cfg.CurrentBalance * cfg.APR / 1200
	payment := c.currentPayment(in, interest)

	sum := PayoffSummary{
		MonthsToPayoff:       res.Months,
		NeverPayable:         res.NeverPayable,
		TotalInterest:        res.TotalInterest,
		TotalToPay:           res.TotalPaid,
		CurrentMonthInterest: interest,
		MinimumPaymentTrap:   interest > 0 && payment <= interest*1.1,
	}
	if res.PaidOff && len(res.Periods) > 0 {
		sum.PayoffDate = FormatDate(res.Periods[len(res.Periods)-1].Date)
	}
	if res.NeverPayable {
		sum.MonthsToPayoff = -1
	}
	return sum
}

// Scenarios compares the current schedule against three fixed-payment
// alternatives: double the current payment, and payments solving for a
// 12- and 24-month payoff. Only alternatives that actually save interest
// are returned, ordered by ascending payment.
func (c *CreditCardCalculator) Scenarios(cfg models.CreditConfig, start time.Time) []PayoffScenario {
	in := payoffInput(cfg, start)
	current := c.Payoff(in)
	base := c.currentPayment(in, cfg.CurrentBalance*cfg.APR/1200)

	candidates := []struct {
		name    string
		payment float64
	}{
		{"double_payment", base * 2},
		{"payoff_12_months", AnnuityPayment(cfg.CurrentBalance, cfg.APR, 12)},
		{"payoff_24_months", AnnuityPayment(cfg.CurrentBalance, cfg.APR, 24)},
	}

	var out []PayoffScenario
	for _, cand := range candidates {
		if cand.payment <= 0 {
			continue
		}
		alt := in
		alt.Strategy = models.StrategyFixed
		alt.FixedPayment = cand.payment
		res := c.Payoff(alt)
		if !res.PaidOff {
			continue
		}
		savings := current.TotalInterest - res.TotalInterest
		monthsSaved := current.Months - res.Months
		if current.NeverPayable {
			// A never-payable schedule's totals are truncated at the
			// stagnation cut and understate its true cost, so any
			// schedule that pays off counts as an improvement.
			if savings < 0 {
				savings = 0
			}
			if monthsSaved < 0 {
				monthsSaved = 0
			}
		} else if savings <= 0 {
			continue
		}
		out = append(out, PayoffScenario{
			Name:            cand.name,
			MonthlyPayment:  cand.payment,
			Months:          res.Months,
			TotalInterest:   res.TotalInterest,
			InterestSavings: savings,
			MonthsSaved:     monthsSaved,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].MonthlyPayment < out[j].MonthlyPayment })
	return out
}

// currentPayment is the payment the configured strategy would make
// against the starting balance.
func (c *CreditCardCalculator) currentPayment(in PayoffInput, interest float64) float64 {
	switch in.Strategy {
	case models.StrategyFullBalance:
		return in.Balance + interest
	case models.StrategyFixed:
		if in.FixedPayment > 0 {
			return in.FixedPayment
		}
	}
	return c.minimumPayment(in, in.Balance, interest)
}

func payoffInput(cfg models.CreditConfig, start time.Time) PayoffInput {
	in := PayoffInput{
		Balance:               cfg.CurrentBalance,
		APR:                   cfg.APR,
		MinimumPaymentPercent: cfg.MinimumPaymentPercent,
		MinimumPaymentFloor:   cfg.MinimumPaymentFloor,
		MinimumPaymentMethod:  cfg.MinimumPaymentMethod,
		Strategy:              cfg.PaymentStrategy,
		StartDate:             start,
		DueDay:                cfg.DueDate,
	}
	if cfg.FixedPaymentAmount != nil {
		in.FixedPayment = *cfg.FixedPaymentAmount
	}
	return in
}

// firstDueDate finds the first occurrence of the due day on or after start.
func firstDueDate(start time.Time, dueDay int) time.Time {
	if dueDay < 1 || dueDay > 31 {
		return start
	}
	d := clampedDate(start.Year(), start.Month(), dueDay)
	if d.Before(start) {
		d = addMonthsClamped(start, 1, dueDay)
	}
	return d
}
