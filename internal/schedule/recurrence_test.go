package schedule

import (
	"testing"
	"time"

	"github.com/nurpe/fireops-orders/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandOnce(t *testing.T) {
	end := date(2025, 6, 1)
	got := Expand(Template{
		Name:          "Fire extinguisher refill",
		Price:         150,
		WorkType:      model.WorkTypeMaintenance,
		RecurringType: model.RecurringOnce,
	}, date(2025, 1, 15), &end, 0)

	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(got))
	}
	if got[0].Name != "Fire extinguisher refill" {
		t.Errorf("once occurrence must keep the template name, got %q", got[0].Name)
	}
	if !got[0].ScheduledDate.Equal(date(2025, 1, 15)) {
		t.Errorf("unexpected date %v", got[0].ScheduledDate)
	}
	if got[0].OccurrenceIndex != 1 {
		t.Errorf("unexpected occurrence index %d", got[0].OccurrenceIndex)
	}
}

func TestExpandOnceExplicitDate(t *testing.T) {
	explicit := date(2025, 3, 10)
	got := Expand(Template{
		Name:          "Alarm installation",
		RecurringType: model.RecurringOnce,
		ScheduledDate: &explicit,
	}, date(2025, 1, 1), nil, 0)

	if len(got) != 1 || !got[0].ScheduledDate.Equal(explicit) {
		t.Fatalf("expected single occurrence at %v, got %+v", explicit, got)
	}
}

func TestExpandMonthly(t *testing.T) {
	end := date(2025, 6, 1)
	got := Expand(Template{
		Name:          "Sprinkler inspection",
		Price:         200,
		WorkType:      model.WorkTypeInspection,
		RecurringType: model.RecurringMonthly,
	}, date(2025, 1, 1), &end, 0)

	if len(got) != 5 {
		t.Fatalf("expected 5 occurrences, got %d", len(got))
	}
	wantDates := []time.Time{
		date(2025, 1, 1), date(2025, 2, 1), date(2025, 3, 1),
		date(2025, 4, 1), date(2025, 5, 1),
	}
	for i, occ := range got {
		if !occ.ScheduledDate.Equal(wantDates[i]) {
			t.Errorf("occurrence %d: expected %v, got %v", i, wantDates[i], occ.ScheduledDate)
		}
		if occ.ScheduledDate.After(end) {
			t.Errorf("occurrence %d past window end", i)
		}
		if occ.OccurrenceIndex != i+1 {
			t.Errorf("occurrence %d: index %d", i, occ.OccurrenceIndex)
		}
		if occ.SortOrder != i {
			t.Errorf("occurrence %d: sort order %d", i, occ.SortOrder)
		}
	}
	if got[0].Name != "Sprinkler inspection (Month1)" {
		t.Errorf("unexpected name %q", got[0].Name)
	}
	if got[4].Name != "Sprinkler inspection (Month5)" {
		t.Errorf("unexpected name %q", got[4].Name)
	}
}

func TestExpandQuarterly(t *testing.T) {
	end := date(2025, 6, 1)
	got := Expand(Template{
		Name:          "Hydrant pressure test",
		Price:         400,
		WorkType:      model.WorkTypeInspection,
		RecurringType: model.RecurringQuarterly,
	}, date(2025, 1, 1), &end, 0)

	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(got))
	}
	if !got[0].ScheduledDate.Equal(date(2025, 1, 1)) || !got[1].ScheduledDate.Equal(date(2025, 4, 1)) {
		t.Fatalf("unexpected dates %v, %v", got[0].ScheduledDate, got[1].ScheduledDate)
	}
	if got[0].Name != "Hydrant pressure test (Q1)" || got[1].Name != "Hydrant pressure test (Q2)" {
		t.Fatalf("unexpected names %q, %q", got[0].Name, got[1].Name)
	}
}

func TestExpandDefaultWindow(t *testing.T) {
	got := Expand(Template{
		Name:          "Monthly check",
		RecurringType: model.RecurringMonthly,
	}, date(2025, 1, 1), nil, 0)

	// 365-day window: 2026-01-01 itself is excluded.
	if len(got) != 12 {
		t.Fatalf("expected 12 occurrences, got %d", len(got))
	}
}

func TestExpandMisorderedWindow(t *testing.T) {
	// The window is deliberately not clamped: a base date past the end
	// yields no recurring occurrences, and exactly one for ONCE.
	end := date(2025, 1, 1)

	recurring := Expand(Template{
		Name:          "Inspection",
		RecurringType: model.RecurringMonthly,
	}, date(2025, 6, 1), &end, 0)
	if len(recurring) != 0 {
		t.Fatalf("expected 0 recurring occurrences for misordered window, got %d", len(recurring))
	}

	quarterly := Expand(Template{
		Name:          "Inspection",
		RecurringType: model.RecurringQuarterly,
	}, date(2025, 6, 1), &end, 0)
	if len(quarterly) != 0 {
		t.Fatalf("expected 0 quarterly occurrences for misordered window, got %d", len(quarterly))
	}

	once := Expand(Template{
		Name:          "Inspection",
		RecurringType: model.RecurringOnce,
	}, date(2025, 6, 1), &end, 0)
	if len(once) != 1 {
		t.Fatalf("expected 1 once occurrence for misordered window, got %d", len(once))
	}
}

func TestExpandSortBase(t *testing.T) {
	end := date(2025, 4, 1)
	got := Expand(Template{
		Name:          "Check",
		RecurringType: model.RecurringMonthly,
	}, date(2025, 1, 1), &end, 7)

	for i, occ := range got {
		if occ.SortOrder != 7+i {
			t.Errorf("occurrence %d: sort order %d, want %d", i, occ.SortOrder, 7+i)
		}
	}
}
