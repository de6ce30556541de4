package engine

import (
	"testing"

	"github.com/dkrylov/finplan/internal/models"
)

func TestAnnuityPayment(t *testing.T) {
	// 12000 at 6% over 12 months: first-period interest 60.00, level
	// payment from P*r*(1+r)^n / ((1+r)^n - 1).
	got := AnnuityPayment(12000, 6, 12)
	if !approxEqual(got, 1032.80, 0.01) {
		t.Errorf("expected payment ~1032.80, got %.4f", got)
	}
	if AnnuityPayment(0, 6, 12) != 0 {
		t.Error("zero principal should solve to zero")
	}
	if AnnuityPayment(1200, 6, 0) != 0 {
		t.Error("zero term should solve to zero")
	}
}

func TestAnnuityPaymentZeroRate(t *testing.T) {
	if got := AnnuityPayment(1200, 0, 12); !approxEqual(got, 100, 1e-9) {
		t.Errorf("zero rate should degenerate to P/n, got %.4f", got)
	}
}

func TestAmortizeTwelveMonthLoan(t *testing.T) {
	sched := Amortize(AmortizationInput{
		Principal:  12000,
		AnnualRate: 6,
		TermMonths: 12,
		StartDate:  mustDate(t, "2025-01-10"),
	})

	if len(sched.Periods) != 12 {
		t.Fatalf("expected 12 periods, got %d", len(sched.Periods))
	}
	first := sched.Periods[0]
	if !approxEqual(first.Interest, 60.00, 0.001) {
		t.Errorf("first-period interest: expected 60.00, got %.4f", first.Interest)
	}
	last := sched.Periods[len(sched.Periods)-1]
	if !approxEqual(last.RemainingBalance, 0, 0.01) {
		t.Errorf("final remaining balance: expected 0, got %.4f", last.RemainingBalance)
	}
	if FormatDate(first.Date) != "2025-01-10" || FormatDate(last.Date) != "2025-12-10" {
		t.Errorf("unexpected schedule dates %s .. %s", FormatDate(first.Date), FormatDate(last.Date))
	}
	if first.PaymentNumber != 1 || first.TotalPayments != 12 {
		t.Errorf("unexpected numbering %d/%d", first.PaymentNumber, first.TotalPayments)
	}
}

func TestAmortizeConservation(t *testing.T) {
	sched := Amortize(AmortizationInput{
		Principal:  12000,
		AnnualRate: 6,
		TermMonths: 12,
		StartDate:  mustDate(t, "2025-01-10"),
	})

	var principalSum float64
	for _, p := range sched.Periods {
		principalSum += p.Principal
	}
	if !approxEqual(principalSum, 12000, 0.01) {
		t.Errorf("principal over the schedule should sum to the loan amount, got %.4f", principalSum)
	}
	if sched.NegativeAmortization {
		t.Error("a normal loan must not flag negative amortization")
	}
}

func TestAmortizeZeroRate(t *testing.T) {
	sched := Amortize(AmortizationInput{
		Principal:  1200,
		AnnualRate: 0,
		TermMonths: 12,
		StartDate:  mustDate(t, "2025-01-01"),
	})
	if len(sched.Periods) != 12 {
		t.Fatalf("expected 12 periods, got %d", len(sched.Periods))
	}
	for i, p := range sched.Periods {
		if p.Interest != 0 {
			t.Errorf("period %d: expected zero interest, got %.4f", i+1, p.Interest)
		}
		if !approxEqual(p.Payment, 100, 0.01) {
			t.Errorf("period %d: expected payment 100, got %.4f", i+1, p.Payment)
		}
	}
}

func TestAmortizeExplicitPayment(t *testing.T) {
	sched := Amortize(AmortizationInput{
		Principal:      1000,
		AnnualRate:     12,
		MonthlyPayment: 500,
		TermMonths:     24,
		StartDate:      mustDate(t, "2025-01-01"),
	})
	// 500/month against 1000 at 1%/month pays off in 3 periods, the
	// last one adjusted to zero the balance exactly.
	if len(sched.Periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(sched.Periods))
	}
	last := sched.Periods[2]
	if !approxEqual(last.RemainingBalance, 0, 0.001) {
		t.Errorf("expected exact payoff, remaining %.4f", last.RemainingBalance)
	}
	if last.Payment >= 500 {
		t.Errorf("final payment should shrink to the residual balance, got %.4f", last.Payment)
	}
}

func TestAmortizeNegativeAmortizationClamp(t *testing.T) {
	// Payment below the running interest: the balance must not grow,
	// and the condition must be surfaced on the schedule.
	sched := Amortize(AmortizationInput{
		Principal:      10000,
		AnnualRate:     24, // 200/month interest
		MonthlyPayment: 100,
		TermMonths:     6,
		StartDate:      mustDate(t, "2025-01-01"),
	})
	if !sched.NegativeAmortization {
		t.Fatal("expected the negative amortization flag")
	}
	for i, p := range sched.Periods {
		if p.Principal != 0 {
			t.Errorf("period %d: expected clamped zero principal, got %.4f", i+1, p.Principal)
		}
		if !approxEqual(p.RemainingBalance, 10000, 0.001) {
			t.Errorf("period %d: balance must not grow, got %.4f", i+1, p.RemainingBalance)
		}
	}
	if len(sched.Periods) != 6 {
		t.Errorf("loop must stop at the term bound, ran %d periods", len(sched.Periods))
	}
}

func TestAmortizeDifferentiated(t *testing.T) {
	sched := Amortize(AmortizationInput{
		Principal:       12000,
		AnnualRate:      12,
		TermMonths:      12,
		StartDate:       mustDate(t, "2025-01-01"),
		CalculationType: models.CalculationDifferentiated,
	})
	if len(sched.Periods) != 12 {
		t.Fatalf("expected 12 periods, got %d", len(sched.Periods))
	}
	for i, p := range sched.Periods {
		if !approxEqual(p.Principal, 1000, 0.01) {
			t.Errorf("period %d: expected flat principal 1000, got %.4f", i+1, p.Principal)
		}
	}
	if sched.Periods[0].Payment <= sched.Periods[11].Payment {
		t.Error("differentiated payments should decline over the term")
	}
	if !approxEqual(sched.Periods[0].Payment, 1120, 0.01) {
		t.Errorf("first differentiated payment: expected 1120, got %.4f", sched.Periods[0].Payment)
	}
}

func TestAmortizeResumesMidLoan(t *testing.T) {
	sched := Amortize(AmortizationInput{
		Principal:          8000,
		AnnualRate:         6,
		TermMonths:         8,
		StartDate:          mustDate(t, "2025-05-15"),
		FirstPaymentNumber: 5,
		TotalPayments:      12,
	})
	if len(sched.Periods) != 8 {
		t.Fatalf("expected 8 remaining periods, got %d", len(sched.Periods))
	}
	if sched.Periods[0].PaymentNumber != 5 || sched.Periods[7].PaymentNumber != 12 {
		t.Errorf("unexpected numbering %d..%d", sched.Periods[0].PaymentNumber, sched.Periods[7].PaymentNumber)
	}
	if sched.Periods[0].TotalPayments != 12 {
		t.Errorf("expected total payments 12, got %d", sched.Periods[0].TotalPayments)
	}
}
