package engine

import (
	"reflect"
	"testing"

	"github.com/dkrylov/finplan/internal/models"
)

func monthlyRule(id, start string) models.RecurrenceRule {
	return models.RecurrenceRule{
		ID:                id,
		Name:              "Rent",
		Amount:            1200,
		Frequency:         models.FrequencyMonthly,
		StartDate:         start,
		WeekendAdjustment: models.WeekendNone,
		IsActive:          true,
	}
}

func datesOf(occs []Occurrence) []string {
	var out []string
	for _, o := range occs {
		out = append(out, FormatDate(o.Date))
	}
	return out
}

func TestMonthlyOccurrences(t *testing.T) {
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(monthlyRule("r1", "2025-01-15"), mustWindow(t, "2025-01-01", "2025-03-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want := []string{"2025-01-15", "2025-02-15", "2025-03-15"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMonthlyDayOfMonthClamping(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-31")
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-04-30"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want := []string{"2025-01-31", "2025-02-28", "2025-03-31", "2025-04-30"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected clamped month-ends %v, got %v", want, got)
	}
}

func TestWeekendAdjustment(t *testing.T) {
	// 2025-02-15 is a Saturday.
	cases := []struct {
		policy models.WeekendAdjustment
		want   string
	}{
		{models.WeekendBefore, "2025-02-14"},
		{models.WeekendAfter, "2025-02-17"},
		{models.WeekendNone, "2025-02-15"},
	}
	calc := NewOccurrenceCalculator(DefaultLimits())
	for _, tc := range cases {
		rule := monthlyRule("r1", "2025-02-15")
		rule.WeekendAdjustment = tc.policy
		occs, err := calc.Occurrences(rule, mustWindow(t, "2025-02-01", "2025-02-28"))
		if err != nil {
			t.Fatalf("policy %s: %v", tc.policy, err)
		}
		if len(occs) != 1 {
			t.Errorf("policy %s: expected [%s], got %v", tc.policy, tc.want, datesOf(occs))
			continue
		}
		if FormatDate(occs[0].Date) != tc.want {
			t.Errorf("policy %s: expected [%s], got %v", tc.policy, tc.want, datesOf(occs))
		}
		if FormatDate(occs[0].LogicalDate) != "2025-02-15" {
			t.Errorf("policy %s: logical date moved to %s", tc.policy, FormatDate(occs[0].LogicalDate))
		}
	}
}

func TestSundayAdjustment(t *testing.T) {
	// 2025-06-15 is a Sunday.
	rule := monthlyRule("r1", "2025-06-15")
	rule.WeekendAdjustment = models.WeekendBefore
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-06-01", "2025-06-30"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occs) != 1 || FormatDate(occs[0].Date) != "2025-06-13" {
		t.Errorf("expected Sunday to move to Friday 2025-06-13, got %v", datesOf(occs))
	}
}

func TestOneTimeWeekendStartStillFires(t *testing.T) {
	// The only occurrence lands on the rule's own start date, a
	// Saturday. Adjusting it backwards must move it, not drop it.
	rule := monthlyRule("r1", "2025-02-15")
	rule.Frequency = models.FrequencyOneTime
	rule.WeekendAdjustment = models.WeekendBefore
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-02-01", "2025-02-28"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occs) != 1 || FormatDate(occs[0].Date) != "2025-02-14" {
		t.Errorf("expected [2025-02-14], got %v", datesOf(occs))
	}
}

func TestWeeklyAlignment(t *testing.T) {
	// Start 2025-01-01 is a Wednesday; align to Friday.
	rule := monthlyRule("r1", "2025-01-01")
	rule.Frequency = models.FrequencyWeekly
	rule.ScheduleConfig.DayOfWeek = intPtr(5)
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-01-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want := []string{"2025-01-03", "2025-01-10", "2025-01-17", "2025-01-24", "2025-01-31"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected Fridays %v, got %v", want, got)
	}
}

func TestBiWeeklyInterval(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-06") // a Monday
	rule.Frequency = models.FrequencyBiWeekly
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-02-28"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want := []string{"2025-01-06", "2025-01-20", "2025-02-03", "2025-02-17"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected default 2-week steps %v, got %v", want, got)
	}

	rule.ScheduleConfig.IntervalWeeks = intPtr(3)
	occs, err = calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-02-28"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want = []string{"2025-01-06", "2025-01-27", "2025-02-17"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected 3-week steps %v, got %v", want, got)
	}
}

func TestSemiMonthlyDefaults(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-01")
	rule.Frequency = models.FrequencySemiMonthly
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-02-28"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	// Default specific days are [15, 30]; February clamps 30 to 28.
	want := []string{"2025-01-15", "2025-01-30", "2025-02-15", "2025-02-28"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSemiMonthlyFiltersBeforeStart(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-20")
	rule.Frequency = models.FrequencySemiMonthly
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-01-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want := []string{"2025-01-30"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected only the 30th (15th precedes start), got %v", got)
	}
}

func TestQuarterly(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-10")
	rule.Frequency = models.FrequencyQuarterly
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-12-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want := []string{"2025-01-10", "2025-04-10", "2025-07-10", "2025-10-10"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestYearly(t *testing.T) {
	rule := monthlyRule("r1", "2024-03-05")
	rule.Frequency = models.FrequencyYearly
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2026-12-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want := []string{"2025-03-05", "2026-03-05"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestOneTime(t *testing.T) {
	rule := monthlyRule("r1", "2025-05-10")
	rule.Frequency = models.FrequencyOneTime
	calc := NewOccurrenceCalculator(DefaultLimits())

	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-05-01", "2025-05-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occs) != 1 || FormatDate(occs[0].Date) != "2025-05-10" {
		t.Errorf("expected the single date inside the window, got %v", datesOf(occs))
	}

	occs, err = calc.Occurrences(rule, mustWindow(t, "2025-06-01", "2025-06-30"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occs) != 0 {
		t.Errorf("expected nothing outside the window, got %v", datesOf(occs))
	}
}

func TestInactiveRuleGeneratesNothing(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-15")
	rule.IsActive = false
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-12-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occs) != 0 {
		t.Errorf("inactive rule generated %v", datesOf(occs))
	}
}

func TestEndDateBoundsOccurrences(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-15")
	rule.EndDate = "2025-02-28"
	calc := NewOccurrenceCalculator(DefaultLimits())
	occs, err := calc.Occurrences(rule, mustWindow(t, "2025-01-01", "2025-12-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	want := []string{"2025-01-15", "2025-02-15"}
	if got := datesOf(occs); !reflect.DeepEqual(got, want) {
		t.Errorf("expected end date to cut generation at %v, got %v", want, got)
	}
}

func TestOccurrenceCap(t *testing.T) {
	rule := monthlyRule("r1", "2020-01-01")
	rule.Frequency = models.FrequencyDaily
	calc := NewOccurrenceCalculator(Limits{MaxOccurrences: 10})
	occs, err := calc.Occurrences(rule, mustWindow(t, "2020-01-01", "2024-12-31"))
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occs) != 10 {
		t.Errorf("expected generation to stop at the cap (10), got %d", len(occs))
	}
}

func TestOccurrenceIdempotence(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-15")
	rule.WeekendAdjustment = models.WeekendAfter
	calc := NewOccurrenceCalculator(DefaultLimits())
	win := mustWindow(t, "2025-01-01", "2025-12-31")

	first, err := calc.Occurrences(rule, win)
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	second, err := calc.Occurrences(rule, win)
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different outputs:\n%v\n%v", first, second)
	}
}

func TestWindowContainment(t *testing.T) {
	rule := monthlyRule("r1", "2025-01-31")
	rule.Frequency = models.FrequencyWeekly
	rule.WeekendAdjustment = models.WeekendAfter
	rule.EndDate = "2025-09-30"
	calc := NewOccurrenceCalculator(DefaultLimits())
	win := mustWindow(t, "2025-03-01", "2025-06-30")

	occs, err := calc.Occurrences(rule, win)
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occs) == 0 {
		t.Fatal("expected occurrences in window")
	}
	for _, occ := range occs {
		if occ.Date.Before(win.Start) || occ.Date.After(win.End) {
			t.Errorf("occurrence %s escaped the window after adjustment", FormatDate(occ.Date))
		}
	}
}
