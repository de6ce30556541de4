package models

// Frequency defines how often a recurrence rule fires.
type Frequency string

const (
	FrequencyOneTime     Frequency = "one-time"
	FrequencyDaily       Frequency = "daily"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiWeekly    Frequency = "bi-weekly"
	FrequencySemiMonthly Frequency = "semi-monthly"
	FrequencyMonthly     Frequency = "monthly"
	FrequencyQuarterly   Frequency = "quarterly"
	FrequencyYearly      Frequency = "yearly"
)

// WeekendAdjustment moves occurrences that land on a weekend.
type WeekendAdjustment string

const (
	WeekendBefore WeekendAdjustment = "before"
	WeekendAfter  WeekendAdjustment = "after"
	WeekendNone   WeekendAdjustment = "none"
)

// ScheduleConfig holds the frequency-specific parameters of a rule.
// Unset fields fall back to defaults derived from the rule's start date.
type ScheduleConfig struct {
	DayOfWeek     *int  `json:"day_of_week,omitempty"` // 0 = Sunday .. 6 = Saturday
	DayOfMonth    *int  `json:"day_of_month,omitempty"`
	SpecificDays  []int `json:"specific_days,omitempty"` // semi-monthly, e.g. [15, 30]
	IntervalWeeks *int  `json:"interval_weeks,omitempty"`
	MonthOfYear   *int  `json:"month_of_year,omitempty"` // 1 = January .. 12 = December
}

// OccurrenceOverride is a user edit to a single occurrence of a rule,
// keyed by the occurrence's logical-period id.
type OccurrenceOverride struct {
	Amount *float64 `json:"amount,omitempty"`
	Date   string   `json:"date,omitempty"` // YYYY-MM-DD
	Skip   bool     `json:"skip,omitempty"`
}

// RecurrenceRule is the shared shape behind income sources and expense rules.
type RecurrenceRule struct {
	ID                  string                        `json:"id"`
	Name                string                        `json:"name"`
	Category            string                        `json:"category"`
	Amount              float64                       `json:"amount"`
	Frequency           Frequency                     `json:"frequency"`
	StartDate           string                        `json:"start_date"` // YYYY-MM-DD
	EndDate             string                        `json:"end_date,omitempty"`
	ScheduleConfig      ScheduleConfig                `json:"schedule_config"`
	WeekendAdjustment   WeekendAdjustment             `json:"weekend_adjustment"`
	IsActive            bool                          `json:"is_active"`
	OccurrenceOverrides map[string]OccurrenceOverride `json:"occurrence_overrides,omitempty"`
}

// Override returns the override for an occurrence id, if any.
func (r *RecurrenceRule) Override(occurrenceID string) (OccurrenceOverride, bool) {
	if r.OccurrenceOverrides == nil {
		return OccurrenceOverride{}, false
	}
	ov, ok := r.OccurrenceOverrides[occurrenceID]
	return ov, ok
}

// IncomeSource is a recurring income rule.
type IncomeSource struct {
	RecurrenceRule
}
