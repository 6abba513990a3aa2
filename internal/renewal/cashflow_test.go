package renewal

import (
	"testing"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/models"
)

// TestCashflowEntries проверяет состав и порядок списаний.
func TestCashflowEntries(t *testing.T) {
	weekly := sub(models.CycleWeekly, "2025-03-03")
	weekly.Name = "Weekly"
	weekly.Amount = 5

	monthly := sub(models.CycleMonthly, "2025-03-03")
	monthly.Name = "Monthly"
	monthly.TaxAmount = 1.5
	monthly.AddOns = []models.AddOn{{ID: uuid.New(), Name: "Extra", Amount: 100, BillingCycle: models.CycleMonthly}}

	cancelled := sub(models.CycleWeekly, "2025-03-04")
	cancelled.Status = models.StatusCancelled

	paused := sub(models.CycleMonthly, "2025-03-20")
	paused.Status = models.StatusPaused

	entries := CashflowEntries([]models.Subscription{weekly, monthly, cancelled, paused}, date("2025-03-01"), date("2025-03-31"))

	// weekly: 03, 10, 17, 24, 31; monthly: 03; paused: 20.
	if len(entries) != 7 {
		t.Fatalf("expected 7 entries, got %d", len(entries))
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].Date.Before(entries[i-1].Date) {
			t.Fatalf("entries not sorted at %d", i)
		}
	}

	if entries[0].SubscriptionName != "Weekly" || entries[1].SubscriptionName != "Monthly" {
		t.Fatalf("expected insertion order on the same date, got %s, %s", entries[0].SubscriptionName, entries[1].SubscriptionName)
	}

	if entries[1].Amount != 11.5 {
		t.Fatalf("expected amount plus tax without add-ons, got %v", entries[1].Amount)
	}

	for _, entry := range entries {
		if entry.SubscriptionID == cancelled.ID {
			t.Fatal("cancelled subscription must not appear in cashflow")
		}
	}

	if got := MonthTotal(entries); got != 46.5 {
		t.Fatalf("expected 46.5, got %v", got)
	}
}

// TestMonthTotalEmpty проверяет нулевую сумму для пустого списка.
func TestMonthTotalEmpty(t *testing.T) {
	if got := MonthTotal(nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

// TestDailyTotals проверяет группировку по дням.
func TestDailyTotals(t *testing.T) {
	a := sub(models.CycleMonthly, "2025-03-03")
	b := sub(models.CycleMonthly, "2025-03-03")
	c := sub(models.CycleMonthly, "2025-03-05")
	entries := CashflowEntries([]models.Subscription{a, b, c}, date("2025-03-01"), date("2025-03-10"))

	days := DailyTotals(entries)
	if len(days) != 2 || days[0].Count != 2 || days[0].Amount != 20 || days[1].Count != 1 {
		t.Fatalf("unexpected daily totals: %+v", days)
	}
}

// TestWindowDefault проверяет окно по умолчанию.
func TestWindowDefault(t *testing.T) {
	start, end := Window(date("2025-03-01"), 0)
	if start.String() != "2025-03-01" || end.String() != "2025-03-31" {
		t.Fatalf("unexpected window %s..%s", start, end)
	}
}
