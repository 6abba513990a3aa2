package renewal

import (
	"testing"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

func date(value string) calendar.Date {
	return calendar.MustParse(value)
}

func sub(cycle models.BillingCycle, next string) models.Subscription {
	return models.Subscription{
		ID:              uuid.New(),
		Name:            "Test",
		BillingCycle:    cycle,
		Amount:          10,
		Currency:        "USD",
		NextRenewalDate: date(next),
		RenewalDayRule:  models.RuleExact,
		Status:          models.StatusActive,
	}
}

// TestNextRenewalCycles проверяет шаг каждого цикла.
func TestNextRenewalCycles(t *testing.T) {
	cases := []struct {
		cycle models.BillingCycle
		days  int
		from  string
		want  string
	}{
		{models.CycleWeekly, 0, "2025-01-01", "2025-01-08"},
		{models.CycleMonthly, 0, "2025-01-31", "2025-02-28"},
		{models.CycleMonthly, 0, "2024-01-31", "2024-02-29"},
		{models.CycleQuarterly, 0, "2025-11-30", "2026-02-28"},
		{models.CycleBiannual, 0, "2025-08-31", "2026-02-28"},
		{models.CycleAnnual, 0, "2024-02-29", "2025-02-28"},
		{models.CycleCustom, 45, "2025-01-01", "2025-02-15"},
		{models.CycleCustom, 0, "2025-01-01", "2025-01-31"},
		{models.CycleCustom, -3, "2025-01-01", "2025-01-31"},
	}

	for _, tc := range cases {
		got := NextRenewal(date(tc.from), tc.cycle, tc.days, models.RuleExact)
		if got.String() != tc.want {
			t.Fatalf("%s from %s: expected %s, got %s", tc.cycle, tc.from, tc.want, got)
		}
	}
}

// TestNextRenewalLastDayOfMonth проверяет привязку к концу месяца для любого дня.
func TestNextRenewalLastDayOfMonth(t *testing.T) {
	cases := map[string]string{
		"2025-01-01": "2025-02-28",
		"2025-01-15": "2025-02-28",
		"2025-01-31": "2025-02-28",
		"2024-01-31": "2024-02-29",
		"2025-03-31": "2025-04-30",
		"2025-12-05": "2026-01-31",
	}

	for from, want := range cases {
		got := NextRenewal(date(from), models.CycleMonthly, 0, models.RuleLastDayOfMonth)
		if got.String() != want {
			t.Fatalf("from %s: expected %s, got %s", from, want, got)
		}
		if !got.Equal(got.LastDayOfMonth()) {
			t.Fatalf("from %s: %s is not the last day of its month", from, got)
		}
	}
}

// TestNextRenewalBusinessDay проверяет перенос с выходных на понедельник.
func TestNextRenewalBusinessDay(t *testing.T) {
	// 2025-03-01 + 1 week = 2025-03-08, a Saturday.
	got := NextRenewal(date("2025-03-01"), models.CycleWeekly, 0, models.RuleNextBusinessDay)
	if got.String() != "2025-03-10" {
		t.Fatalf("expected Monday 2025-03-10, got %s", got)
	}

	// 2025-02-09 + 1 month = 2025-03-09, a Sunday.
	got = NextRenewal(date("2025-02-09"), models.CycleMonthly, 0, models.RuleNextBusinessDay)
	if got.String() != "2025-03-10" {
		t.Fatalf("expected Monday 2025-03-10, got %s", got)
	}

	// 2025-02-12 + 1 month = 2025-03-12, a Wednesday.
	got = NextRenewal(date("2025-02-12"), models.CycleMonthly, 0, models.RuleNextBusinessDay)
	if got.String() != "2025-03-12" {
		t.Fatalf("expected weekday unchanged, got %s", got)
	}
}

// TestAdvanceToFuture проверяет догон устаревшей даты.
func TestAdvanceToFuture(t *testing.T) {
	today := date("2025-06-15")

	got := AdvanceToFuture(date("2025-01-15"), models.CycleMonthly, 0, models.RuleExact, today)
	if got.String() != "2025-06-15" {
		t.Fatalf("expected 2025-06-15, got %s", got)
	}

	got = AdvanceToFuture(date("2025-01-16"), models.CycleMonthly, 0, models.RuleExact, today)
	if got.String() != "2025-06-16" {
		t.Fatalf("expected 2025-06-16, got %s", got)
	}

	future := date("2025-09-01")
	if got := AdvanceToFuture(future, models.CycleMonthly, 0, models.RuleExact, today); !got.Equal(future) {
		t.Fatalf("future date must be unchanged, got %s", got)
	}

	got = AdvanceToFuture(date("2020-01-01"), models.CycleCustom, 0, models.RuleExact, today)
	if got.Before(today) {
		t.Fatalf("expected date on or after today, got %s", got)
	}
}

// TestInRangeTwelveMonths проверяет ровно 12 списаний за 12 месяцев.
func TestInRangeTwelveMonths(t *testing.T) {
	s := sub(models.CycleMonthly, "2025-01-10")
	got := InRange(s, date("2025-01-10"), date("2026-01-09"))
	if len(got) != 12 {
		t.Fatalf("expected 12 renewals, got %d: %v", len(got), got)
	}
	if got[0].String() != "2025-01-10" || got[11].String() != "2025-12-10" {
		t.Fatalf("unexpected bounds: %s .. %s", got[0], got[11])
	}
}

// TestInRangeBounds проверяет, что все даты лежат внутри окна.
func TestInRangeBounds(t *testing.T) {
	start, end := date("2025-03-01"), date("2025-05-31")
	subs := []models.Subscription{
		sub(models.CycleWeekly, "2024-12-30"),
		sub(models.CycleMonthly, "2025-04-20"),
		sub(models.CycleCustom, "2025-02-27"),
		sub(models.CycleAnnual, "2025-06-01"),
	}
	subs[2].CustomCycleDays = 10

	for _, s := range subs {
		for _, d := range InRange(s, start, end) {
			if d.Before(start) || d.After(end) {
				t.Fatalf("%s: %s outside [%s, %s]", s.BillingCycle, d, start, end)
			}
		}
	}

	if got := InRange(subs[3], start, end); len(got) != 0 {
		t.Fatalf("expected no renewals after the window, got %v", got)
	}

	got := InRange(subs[1], start, end)
	if len(got) != 2 || got[0].String() != "2025-04-20" || got[1].String() != "2025-05-20" {
		t.Fatalf("expected renewals starting at next renewal date, got %v", got)
	}

	// 2024-12-30 + 9 weeks = 2025-03-03 is the first weekly occurrence.
	if weekly := InRange(subs[0], start, end); weekly[0].String() != "2025-03-03" {
		t.Fatalf("unexpected first weekly occurrence %s", weekly[0])
	}
}

// TestInRangeCancelled проверяет отсутствие дат у отмененной подписки.
func TestInRangeCancelled(t *testing.T) {
	s := sub(models.CycleWeekly, "2025-03-01")
	s.Status = models.StatusCancelled
	if got := InRange(s, date("2025-01-01"), date("2025-12-31")); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
}

// TestIsRenewalToday проверяет совпадение даты продления с сегодняшней.
func TestIsRenewalToday(t *testing.T) {
	s := sub(models.CycleMonthly, "2025-03-01")
	if !IsRenewalToday(s, date("2025-03-01")) {
		t.Fatal("expected renewal today")
	}
	if IsRenewalToday(s, date("2025-03-02")) {
		t.Fatal("expected no renewal today")
	}
}
