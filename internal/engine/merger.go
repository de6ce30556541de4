package engine

import (
	"sort"

	"github.com/dkrylov/finplan/internal/models"
)

// Merger reconciles freshly generated projections against stored
// (user-recorded) transactions. Stored records are authoritative: a
// stored record matching a projection's identity replaces it.
type Merger struct {
	generator *Generator
}

// NewMerger returns a merger using the given generator for projections.
func NewMerger(generator *Generator) *Merger {
	return &Merger{generator: generator}
}

// storedKey is the identity a stored record is indexed under: the
// occurrence id when present, otherwise source id + scheduled date.
// Manual transactions (no source) never match and have no key.
func storedKey(t *models.Transaction) string {
	if t.OccurrenceID != "" {
		return t.OccurrenceID
	}
	if t.SourceID != "" {
		return t.SourceID + "|" + t.ScheduledDate
	}
	return ""
}

func dateKey(t *models.Transaction) string {
	return t.SourceID + "|" + t.ScheduledDate
}

// Merge generates projections for the window and folds the stored
// transactions in. Exactly one transaction per (source, occurrence)
// identity is emitted; stored records with no matching projection —
// manual entries, or records whose rule was deleted or deactivated —
// are appended unchanged. The result is sorted by effective date.
func (m *Merger) Merge(stored []models.Transaction, incomes []models.IncomeSource, expenses []models.ExpenseRule, win Window) ([]models.Transaction, error) {
	projections, err := m.generator.Generate(incomes, expenses, win)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]int, len(stored))
	matched := make([]bool, len(stored))
	for i := range stored {
		if key := storedKey(&stored[i]); key != "" {
			byKey[key] = i
		}
	}

	out := make([]models.Transaction, 0, len(projections)+len(stored))
	for i := range projections {
		// Projections always carry an occurrence id; stored records
		// written by older clients may only have source id + date.
		key := projections[i].OccurrenceID
		idx, ok := byKey[key]
		if !ok {
			key = dateKey(&projections[i])
			idx, ok = byKey[key]
		}
		if ok {
			out = append(out, stored[idx])
			matched[idx] = true
			delete(byKey, key)
			continue
		}
		out = append(out, projections[i])
	}
	for i := range stored {
		if !matched[i] {
			out = append(out, stored[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveDate() < out[j].EffectiveDate()
	})
	return out, nil
}
