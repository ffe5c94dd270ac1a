package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/nurpe/fireops-orders/internal/model"
)

// Template describes one work-order line of a service plan before
// expansion into dated occurrences.
type Template struct {
	Name          string
	Description   string
	Price         float64
	WorkType      model.WorkType
	ScheduledDate *time.Time
	RecurringType model.RecurringType
}

// Occurrence is one dated work-order draft produced from a template.
// Callers persist the drafts; expansion itself has no side effects.
type Occurrence struct {
	Name            string
	Description     string
	Price           float64
	WorkType        model.WorkType
	ScheduledDate   time.Time
	RecurringType   model.RecurringType
	OccurrenceIndex int
	SortOrder       int
}

const defaultWindowDays = 365

// Expand turns a template into its occurrences inside the project
// window. endDate defaults to baseDate + 365 days. Recurring templates
// emit occurrences at base + i*interval months and stop at the first
// date on or past the window end; the window is not clamped when
// baseDate is already past endDate, so a misordered window yields no
// recurring occurrences. sortBase offsets the display order when
// several templates are expanded into one checklist.
func Expand(tpl Template, baseDate time.Time, endDate *time.Time, sortBase int) []Occurrence {
	base := dateOnly(baseDate)
	if tpl.ScheduledDate != nil && tpl.RecurringType == model.RecurringOnce {
		base = dateOnly(*tpl.ScheduledDate)
	}

	end := base.AddDate(0, 0, defaultWindowDays)
	if endDate != nil {
		end = dateOnly(*endDate)
	}

	interval := 0
	switch tpl.RecurringType {
	case model.RecurringMonthly:
		interval = 1
	case model.RecurringQuarterly:
		interval = 3
	default:
		return []Occurrence{{
			Name:            tpl.Name,
			Description:     tpl.Description,
			Price:           tpl.Price,
			WorkType:        tpl.WorkType,
			ScheduledDate:   base,
			RecurringType:   model.RecurringOnce,
			OccurrenceIndex: 1,
			SortOrder:       sortBase,
		}}
	}

	count := int(math.Ceil(monthsBetween(dateOnly(baseDate), end) / float64(interval)))
	if count < 0 {
		count = 0
	}

	occurrences := make([]Occurrence, 0, count+1)
	for i := 0; i <= count; i++ {
		date := dateOnly(baseDate).AddDate(0, i*interval, 0)
		if !date.Before(end) {
			break
		}
		occurrences = append(occurrences, Occurrence{
			Name:            occurrenceName(tpl.Name, tpl.RecurringType, i+1),
			Description:     tpl.Description,
			Price:           tpl.Price,
			WorkType:        tpl.WorkType,
			ScheduledDate:   date,
			RecurringType:   tpl.RecurringType,
			OccurrenceIndex: i + 1,
			SortOrder:       sortBase + len(occurrences),
		})
	}
	return occurrences
}

// monthsBetween approximates months as 30-day blocks, matching the
// invoicing cadence rather than calendar months.
func monthsBetween(from, to time.Time) float64 {
	days := to.Sub(from).Hours() / 24
	return math.Ceil(days / 30)
}

func occurrenceName(name string, recurring model.RecurringType, index int) string {
	if recurring == model.RecurringQuarterly {
		return fmt.Sprintf("%s (Q%d)", name, index)
	}
	return fmt.Sprintf("%s (Month%d)", name, index)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
