package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// Window is the query date range occurrences are expanded into.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow builds a Window from the caller's ISO date pair.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Window{}, err
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("window end %s precedes start %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

// Occurrence is one concrete firing of a recurrence rule. LogicalDate is
// the date the schedule puts it on; Date is the effective date after
// weekend adjustment. Identity is always derived from LogicalDate so it
// survives the adjustment.
type Occurrence struct {
	Date        time.Time
	LogicalDate time.Time
}

// OccurrenceCalculator expands recurrence rules into concrete dates.
type OccurrenceCalculator struct {
	limits Limits
}

// NewOccurrenceCalculator returns a calculator bounded by the given limits.
func NewOccurrenceCalculator(limits Limits) *OccurrenceCalculator {
	return &OccurrenceCalculator{limits: limits.withDefaults()}
}

// Occurrences returns the rule's firings inside the window, ordered by
// date, weekend-adjusted, and capped at limits.MaxOccurrences. Inactive
// rules yield nothing.
func (c *OccurrenceCalculator) Occurrences(rule models.RecurrenceRule, win Window) ([]Occurrence, error) {
	if !rule.IsActive {
		return nil, nil
	}

	start, err := ParseDate(rule.StartDate)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	rangeEnd := win.End
	if rule.EndDate != "" {
		end, err := ParseDate(rule.EndDate)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		rangeEnd = minDate(end, win.End)
	}
	if rangeEnd.Before(start) {
		return nil, nil
	}
	lower := maxDate(start, win.Start)

	var out []Occurrence
	emit := func(logical time.Time) bool {
		if len(out) >= c.limits.MaxOccurrences {
			return false
		}
		// Window membership is decided on the logical date; the weekend
		// adjustment applies afterwards, so an occurrence on the window
		// edge moves instead of vanishing.
		if logical.Before(lower) || logical.After(rangeEnd) {
			return true
		}
		out = append(out, Occurrence{Date: adjustWeekend(logical, rule.WeekendAdjustment), LogicalDate: logical})
		return true
	}

	switch rule.Frequency {
	case models.FrequencyOneTime:
		emit(start)

	case models.FrequencyDaily:
		for d := lower; !d.After(rangeEnd); d = d.AddDate(0, 0, 1) {
			if !emit(d) {
				break
			}
		}

	case models.FrequencyWeekly, models.FrequencyBiWeekly:
		step := 7
		if rule.Frequency == models.FrequencyBiWeekly {
			step = intervalWeeks(rule.ScheduleConfig) * 7
		}
		d := alignToWeekday(start, targetWeekday(rule.ScheduleConfig, start))
		// Skip whole intervals that end before the window opens.
		if d.Before(lower) {
			behind := daysBetween(d, lower)
			d = d.AddDate(0, 0, (behind/step)*step)
		}
		for ; !d.After(rangeEnd); d = d.AddDate(0, 0, step) {
			if !emit(d) {
				break
			}
		}

	case models.FrequencySemiMonthly:
		days := specificDays(rule.ScheduleConfig)
		first := maxDate(start, win.Start)
		y, m, _ := first.Date()
	semimonthly:
		for cur := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC); !cur.After(rangeEnd); cur = cur.AddDate(0, 1, 0) {
			for _, day := range days {
				logical := clampedDate(cur.Year(), cur.Month(), day)
				if logical.Before(start) {
					continue
				}
				if !emit(logical) {
					break semimonthly
				}
			}
		}

	case models.FrequencyMonthly, models.FrequencyQuarterly:
		step := 1
		if rule.Frequency == models.FrequencyQuarterly {
			step = 3
		}
		dom := dayOfMonth(rule.ScheduleConfig, start)
		for i := 0; ; i += step {
			logical := addMonthsClamped(start, i, dom)
			if logical.After(rangeEnd) {
				break
			}
			if logical.Before(start) {
				continue
			}
			if !emit(logical) {
				break
			}
		}

	case models.FrequencyYearly:
		month := monthOfYear(rule.ScheduleConfig, start)
		dom := dayOfMonth(rule.ScheduleConfig, start)
		for year := start.Year(); ; year++ {
			logical := clampedDate(year, month, dom)
			if logical.After(rangeEnd) {
				break
			}
			if logical.Before(start) {
				continue
			}
			if !emit(logical) {
				break
			}
		}

	default:
		return nil, fmt.Errorf("rule %s: unknown frequency %q", rule.ID, rule.Frequency)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// alignToWeekday scans at most a week forward from start to the wanted
// weekday. The scan uses the unadjusted date; weekend adjustment applies
// to the final date only.
func alignToWeekday(start time.Time, wd time.Weekday) time.Time {
	d := start
	for i := 0; i < 7; i++ {
		if d.Weekday() == wd {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
	return start
}

func targetWeekday(cfg models.ScheduleConfig, start time.Time) time.Weekday {
	if cfg.DayOfWeek != nil && *cfg.DayOfWeek >= 0 && *cfg.DayOfWeek <= 6 {
		return time.Weekday(*cfg.DayOfWeek)
	}
	return start.Weekday()
}

func intervalWeeks(cfg models.ScheduleConfig) int {
	if cfg.IntervalWeeks != nil && *cfg.IntervalWeeks > 0 {
		return *cfg.IntervalWeeks
	}
	return 2
}

func dayOfMonth(cfg models.ScheduleConfig, start time.Time) int {
	if cfg.DayOfMonth != nil && *cfg.DayOfMonth >= 1 && *cfg.DayOfMonth <= 31 {
		return *cfg.DayOfMonth
	}
	return start.Day()
}

func monthOfYear(cfg models.ScheduleConfig, start time.Time) time.Month {
	if cfg.MonthOfYear != nil && *cfg.MonthOfYear >= 1 && *cfg.MonthOfYear <= 12 {
		return time.Month(*cfg.MonthOfYear)
	}
	return start.Month()
}

func specificDays(cfg models.ScheduleConfig) []int {
	if len(cfg.SpecificDays) == 0 {
		return []int{15, 30}
	}
	days := make([]int, len(cfg.SpecificDays))
	copy(days, cfg.SpecificDays)
	sort.Ints(days)
	return days
}
