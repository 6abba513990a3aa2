package alerts

import (
	"sort"

	"example.com/subtracker/backend/internal/billing"
	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

// DefaultEscalationThreshold is the monthly cost above which a 30-day alert is added.
const DefaultEscalationThreshold = 50

// Generate строит оповещения о ближайших продлениях: не больше одного на подписку,
// с самым срочным из подходящих сроков. Функция чистая и не учитывает скрытые оповещения.
func Generate(subs []models.Subscription, today calendar.Date, escalationThreshold float64) []models.Alert {
	billable := billing.Billable(subs)
	avgMonthly := billing.AverageMonthly(billable, today.Time)

	alerts := make([]models.Alert, 0)
	for _, sub := range billable {
		if Snoozed(sub, today) {
			continue
		}

		daysUntil := today.DaysUntil(sub.NextRenewalDate)
		effectiveMonthly := billing.CurrentEffectiveMonthly(sub, today.Time)
		timings := LeadTimes(sub, effectiveMonthly, escalationThreshold, avgMonthly)

		daysBefore, ok := mostUrgent(timings, daysUntil)
		if !ok {
			continue
		}

		key := KeyFor(sub, daysBefore)
		alerts = append(alerts, models.Alert{
			ID:               key.String(),
			SubscriptionID:   sub.ID,
			SubscriptionName: sub.Name,
			RenewalDate:      sub.NextRenewalDate,
			Amount:           sub.CycleAmount(),
			EffectiveMonthly: effectiveMonthly,
			DaysBefore:       daysBefore,
			DaysUntil:        daysUntil,
			AlertDate:        sub.NextRenewalDate.AddDays(-daysBefore),
			Urgency:          string(UrgencyFor(daysUntil)),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DaysUntil < alerts[j].DaysUntil
	})

	return alerts
}

// Snoozed сообщает, отложены ли оповещения подписки на дату today.
func Snoozed(sub models.Subscription, today calendar.Date) bool {
	return sub.AlertSnoozedUntil != nil && today.Before(*sub.AlertSnoozedUntil)
}

// Escalated сообщает, считается ли подписка дорогой.
func Escalated(effectiveMonthly, escalationThreshold, avgMonthly float64) bool {
	return effectiveMonthly > escalationThreshold || effectiveMonthly > avgMonthly*2
}

// LeadTimes объединяет настроенные сроки и 30-дневный срок для дорогих подписок.
func LeadTimes(sub models.Subscription, effectiveMonthly, escalationThreshold, avgMonthly float64) []int {
	seen := make(map[int]struct{}, len(sub.AlertDaysBefore)+1)
	timings := make([]int, 0, len(sub.AlertDaysBefore)+1)
	for _, days := range sub.AlertDaysBefore {
		if _, ok := seen[days]; ok {
			continue
		}
		seen[days] = struct{}{}
		timings = append(timings, days)
	}

	if Escalated(effectiveMonthly, escalationThreshold, avgMonthly) {
		if _, ok := seen[models.EscalationLeadDays]; !ok {
			timings = append(timings, models.EscalationLeadDays)
		}
	}

	sort.Ints(timings)
	return timings
}

// timings must be sorted ascending.
func mostUrgent(timings []int, daysUntil int) (int, bool) {
	if daysUntil < 0 {
		return 0, false
	}
	for _, days := range timings {
		if daysUntil <= days {
			return days, true
		}
	}
	return 0, false
}
