package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// OccurrenceID derives the stable logical-period key for one occurrence
// of a rule. The key encodes the period (month, ISO week, interval
// index, ...) rather than the effective date, so weekend adjustment and
// user rescheduling never move it. It is also the key into a rule's
// occurrence overrides and the suffix of the deterministic projection id.
func OccurrenceID(ruleID string, freq models.Frequency, cfg models.ScheduleConfig, start, logical time.Time) string {
	switch freq {
	case models.FrequencyOneTime:
		return ruleID + "_once"
	case models.FrequencyDaily:
		return fmt.Sprintf("%s_%s", ruleID, FormatDate(logical))
	case models.FrequencyWeekly:
		year, week := logical.ISOWeek()
		return fmt.Sprintf("%s_%d-W%02d", ruleID, year, week)
	case models.FrequencyBiWeekly:
		interval := intervalWeeks(cfg) * 7
		n := daysBetween(alignToWeekday(start, targetWeekday(cfg, start)), logical)/interval + 1
		return fmt.Sprintf("%s_BW%d", ruleID, n)
	case models.FrequencySemiMonthly:
		slot := semiMonthlySlot(specificDays(cfg), logical)
		return fmt.Sprintf("%s_%04d-%02d-%d", ruleID, logical.Year(), logical.Month(), slot)
	case models.FrequencyMonthly:
		return fmt.Sprintf("%s_%04d-%02d", ruleID, logical.Year(), logical.Month())
	case models.FrequencyQuarterly:
		quarter := (int(logical.Month())-1)/3 + 1
		return fmt.Sprintf("%s_%04d-Q%d", ruleID, logical.Year(), quarter)
	case models.FrequencyYearly:
		return fmt.Sprintf("%s_%04d", ruleID, logical.Year())
	default:
		return fmt.Sprintf("%s_%s", ruleID, FormatDate(logical))
	}
}

// semiMonthlySlot maps a day to its 1-based index in the sorted
// configured days. When month-end clamping moved the date off a
// configured day (e.g. day 30 in February), the nearest day wins.
func semiMonthlySlot(days []int, logical time.Time) int {
	day := logical.Day()
	slot := 1
	best := -1
	for i, d := range days {
		diff := d - day
		if diff < 0 {
			diff = -diff
		}
		if best < 0 || diff < best {
			best = diff
			slot = i + 1
		}
	}
	return slot
}

const projectionIDPrefix = "proj_"
const projectionIDSep = "::"

// ProjectionRef is the structured identity of a projected transaction.
// Mutation flows carry it instead of re-parsing the display id.
type ProjectionRef struct {
	SourceID      string `json:"source_id"`
	OccurrenceID  string `json:"occurrence_id"`
	ScheduledDate string `json:"scheduled_date"`
}

// ProjectionID builds the deterministic display id of a projection:
// proj_<sourceId>::<scheduledDate>::<occurrenceId>.
func ProjectionID(ref ProjectionRef) string {
	return projectionIDPrefix + ref.SourceID + projectionIDSep + ref.ScheduledDate + projectionIDSep + ref.OccurrenceID
}

// ParseProjectionID reverses ProjectionID. A malformed id indicates a
// caller bug, so this fails loudly rather than guessing.
func ParseProjectionID(id string) (ProjectionRef, error) {
	if !strings.HasPrefix(id, projectionIDPrefix) {
		return ProjectionRef{}, fmt.Errorf("invalid projection id %q: missing %q prefix", id, projectionIDPrefix)
	}
	parts := strings.Split(strings.TrimPrefix(id, projectionIDPrefix), projectionIDSep)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return ProjectionRef{}, fmt.Errorf("invalid projection id %q: want proj_<source>::<date>::<occurrence>", id)
	}
	if _, err := ParseDate(parts[1]); err != nil {
		return ProjectionRef{}, fmt.Errorf("invalid projection id %q: %w", id, err)
	}
	return ProjectionRef{SourceID: parts[0], ScheduledDate: parts[1], OccurrenceID: parts[2]}, nil
}
