package renewal

import (
	"sort"

	"example.com/subtracker/backend/internal/billing"
	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

// DefaultWindowDays is the cashflow horizon used when none is requested.
const DefaultWindowDays = 30

// Window возвращает отрезок [today, today+days].
func Window(today calendar.Date, days int) (calendar.Date, calendar.Date) {
	if days <= 0 {
		days = DefaultWindowDays
	}
	return today, today.AddDays(days)
}

// CashflowEntries разворачивает подписки в список списаний внутри окна, отсортированный по дате.
func CashflowEntries(subs []models.Subscription, start, end calendar.Date) []models.CashflowEntry {
	entries := make([]models.CashflowEntry, 0)

	for _, sub := range subs {
		if sub.Status == models.StatusCancelled {
			continue
		}

		for _, date := range InRange(sub, start, end) {
			entries = append(entries, models.CashflowEntry{
				Date:             date,
				SubscriptionID:   sub.ID,
				SubscriptionName: sub.Name,
				Amount:           sub.CycleAmount(),
				CategoryID:       sub.CategoryID,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	return entries
}

// MonthTotal суммирует списания с округлением до центов.
func MonthTotal(entries []models.CashflowEntry) float64 {
	var total float64
	for _, entry := range entries {
		total += entry.Amount
	}
	return billing.Round2(total)
}

// DailyTotals группирует списания по датам в порядке возрастания.
func DailyTotals(entries []models.CashflowEntry) []DayTotal {
	days := make([]DayTotal, 0)
	for _, entry := range entries {
		if n := len(days); n > 0 && days[n-1].Date.Equal(entry.Date) {
			days[n-1].Amount = billing.Round2(days[n-1].Amount + entry.Amount)
			days[n-1].Count++
			continue
		}
		days = append(days, DayTotal{Date: entry.Date, Amount: billing.Round2(entry.Amount), Count: 1})
	}
	return days
}

type DayTotal struct {
	Date   calendar.Date `json:"date"`
	Amount float64       `json:"amount"`
	Count  int           `json:"count"`
}
