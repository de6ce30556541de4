package engine

import (
	"math"
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// balanceEpsilon is the residual below which a balance counts as paid off.
const balanceEpsilon = 0.01

// maxAmortizationMonths bounds schedules with no explicit term.
const maxAmortizationMonths = 360

// AmortizationInput describes one loan schedule computation.
type AmortizationInput struct {
	Principal  float64
	AnnualRate float64 // percent, e.g. 6 for 6%
	TermMonths int     // 0 falls back to maxAmortizationMonths

	// MonthlyPayment overrides the solved annuity payment when > 0.
	MonthlyPayment float64

	StartDate time.Time // date of the first scheduled payment

	// FirstPaymentNumber lets a schedule resume mid-loan (payments
	// already made); 0 means 1. TotalPayments is the loan's full term
	// for breakdown reporting; 0 derives it from the inputs.
	FirstPaymentNumber int
	TotalPayments      int

	CalculationType models.CalculationType
}

// PaymentPeriod is one row of a payment schedule.
type PaymentPeriod struct {
	Date             time.Time
	Payment          float64
	Principal        float64
	Interest         float64
	RemainingBalance float64
	PaymentNumber    int
	TotalPayments    int
}

// AmortizationSchedule is the computed schedule plus its aggregates.
type AmortizationSchedule struct {
	Periods        []PaymentPeriod
	MonthlyPayment float64
	TotalInterest  float64
	TotalPaid      float64

	// NegativeAmortization reports that at least one period's payment
	// did not cover its interest. The principal contribution is clamped
	// to zero in that case rather than growing the balance, so the flag
	// is the only trace of it.
	NegativeAmortization bool
}

// AnnuityPayment solves the level monthly payment for a loan:
// P*r*(1+r)^n / ((1+r)^n - 1), degenerating to P/n at a zero rate.
func AnnuityPayment(principal, annualRate float64, termMonths int) float64 {
	if termMonths <= 0 || principal <= 0 {
		return 0
	}
	r := annualRate / 1200
	if r == 0 {
		return principal / float64(termMonths)
	}
	factor := math.Pow(1+r, float64(termMonths))
	return principal * r * factor / (factor - 1)
}

// Amortize computes a fixed-payment (or differentiated) loan schedule.
// The final period's payment is adjusted so the balance lands exactly
// on zero.
func Amortize(in AmortizationInput) AmortizationSchedule {
	term := in.TermMonths
	if term <= 0 {
		term = maxAmortizationMonths
	}
	firstNumber := in.FirstPaymentNumber
	if firstNumber <= 0 {
		firstNumber = 1
	}
	totalPayments := in.TotalPayments
	if totalPayments <= 0 {
		totalPayments = firstNumber + term - 1
	}

	r := in.AnnualRate / 1200
	sched := AmortizationSchedule{}

	level := in.MonthlyPayment
	if level <= 0 {
		level = AnnuityPayment(in.Principal, in.AnnualRate, term)
	}
	sched.MonthlyPayment = level

	flatPrincipal := in.Principal / float64(term)

	balance := in.Principal
	day := in.StartDate.Day()
	for p := 0; p < term && balance > balanceEpsilon; p++ {
		interest := balance * r
		var payment, principal float64
		if in.CalculationType == models.CalculationDifferentiated {
			principal = flatPrincipal
			payment = principal + interest
		} else {
			payment = level
			principal = payment - interest
		}
		if principal < 0 {
			principal = 0
			sched.NegativeAmortization = true
		}
		// Cap the final period so the schedule zeroes out exactly.
		if principal >= balance-balanceEpsilon {
			principal = balance
			payment = principal + interest
		}
		balance -= principal

		sched.Periods = append(sched.Periods, PaymentPeriod{
			Date:             addMonthsClamped(in.StartDate, p, day),
			Payment:          payment,
			Principal:        principal,
			Interest:         interest,
			RemainingBalance: balance,
			PaymentNumber:    firstNumber + p,
			TotalPayments:    totalPayments,
		})
		sched.TotalInterest += interest
		sched.TotalPaid += payment
	}
	return sched
}
