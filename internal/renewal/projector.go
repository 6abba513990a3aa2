package renewal

import (
	"example.com/subtracker/backend/internal/billing"
	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

// Advance сдвигает дату на один цикл без применения правила дня.
func Advance(from calendar.Date, cycle models.BillingCycle, customDays int) calendar.Date {
	switch cycle {
	case models.CycleWeekly:
		return from.AddDays(7)
	case models.CycleMonthly:
		return from.AddMonths(1)
	case models.CycleQuarterly:
		return from.AddMonths(3)
	case models.CycleBiannual:
		return from.AddMonths(6)
	case models.CycleAnnual:
		return from.AddYears(1)
	case models.CycleCustom:
		return from.AddDays(billing.CustomDays(customDays))
	default:
		// Unknown cycles bill monthly, matching the normalizer's fallback.
		return from.AddMonths(1)
	}
}

// ApplyDayRule корректирует дату по правилу дня продления.
func ApplyDayRule(date calendar.Date, rule models.RenewalDayRule) calendar.Date {
	switch rule {
	case models.RuleLastDayOfMonth:
		return date.LastDayOfMonth()
	case models.RuleNextBusinessDay:
		if date.IsWeekend() {
			return date.NextMonday()
		}
		return date
	default:
		return date
	}
}

// NextRenewal вычисляет следующую дату списания после last.
func NextRenewal(last calendar.Date, cycle models.BillingCycle, customDays int, rule models.RenewalDayRule) calendar.Date {
	next := ApplyDayRule(Advance(last, cycle, customDays), rule)
	if !next.After(last) {
		// Range walks and catch-up loops require strictly increasing dates.
		next = last.AddDays(1)
	}
	return next
}

// AdvanceToFuture догоняет устаревшую дату продления до сегодняшнего дня или позже.
func AdvanceToFuture(date calendar.Date, cycle models.BillingCycle, customDays int, rule models.RenewalDayRule, today calendar.Date) calendar.Date {
	current := date
	for current.Before(today) {
		current = NextRenewal(current, cycle, customDays, rule)
	}
	return current
}

// NextFor is NextRenewal with the subscription's own schedule.
func NextFor(sub models.Subscription, from calendar.Date) calendar.Date {
	return NextRenewal(from, sub.BillingCycle, sub.CustomCycleDays, sub.RenewalDayRule)
}

// InRange возвращает все даты продления подписки в отрезке [start, end].
func InRange(sub models.Subscription, start, end calendar.Date) []calendar.Date {
	if sub.Status == models.StatusCancelled || end.Before(start) || sub.NextRenewalDate.IsZero() {
		return nil
	}

	current := sub.NextRenewalDate
	for current.Before(start) {
		current = NextFor(sub, current)
	}

	var renewals []calendar.Date
	for !current.After(end) {
		renewals = append(renewals, current)
		current = NextFor(sub, current)
	}

	return renewals
}

// IsRenewalToday сообщает, приходится ли следующее продление на today.
func IsRenewalToday(sub models.Subscription, today calendar.Date) bool {
	return sub.NextRenewalDate.Equal(today)
}
