package billing

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

// AvgDaysPerMonth is 365.2425 / 12.
const AvgDaysPerMonth = 30.436875

// DefaultCustomCycleDays is used when a custom cycle has no positive day count.
const DefaultCustomCycleDays = 30

const (
	unknownCategoryName = "Unknown"
	unknownCategoryIcon = "package"
)

// Round2 округляет сумму до центов.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// CustomDays возвращает длину пользовательского цикла, подставляя 30 для пустых значений.
func CustomDays(days int) int {
	if days <= 0 {
		return DefaultCustomCycleDays
	}
	return days
}

// NormalizeToMonthly приводит сумму за цикл к месячной.
func NormalizeToMonthly(amount float64, cycle models.BillingCycle, customDays int) float64 {
	switch cycle {
	case models.CycleWeekly:
		return amount * (52.0 / 12.0)
	case models.CycleQuarterly:
		return amount / 3
	case models.CycleBiannual:
		return amount / 6
	case models.CycleAnnual:
		return amount / 12
	case models.CycleCustom:
		return amount * AvgDaysPerMonth / float64(CustomDays(customDays))
	default:
		return amount
	}
}

// AddOnMonthly нормализует дополнение по его собственному циклу.
func AddOnMonthly(addOn models.AddOn) float64 {
	return NormalizeToMonthly(addOn.Amount, addOn.BillingCycle, addOn.CustomCycleDays)
}

// EffectiveMonthly возвращает полную месячную стоимость: цена с налогом и все дополнения.
func EffectiveMonthly(sub models.Subscription) float64 {
	var addOnTotal float64
	for _, addOn := range sub.AddOns {
		addOnTotal += AddOnMonthly(addOn)
	}

	monthly := NormalizeToMonthly(sub.CycleAmount(), sub.BillingCycle, sub.CustomCycleDays) + addOnTotal
	return Round2(monthly)
}

// IntroActive сообщает, действует ли вводная цена на дату now.
func IntroActive(sub models.Subscription, now time.Time) bool {
	if !sub.HasIntroPricing || sub.IntroEndDate == nil || sub.IntroPrice == nil {
		return false
	}
	return calendar.FromTime(now).Before(*sub.IntroEndDate)
}

// CurrentEffectiveMonthly учитывает действующую вводную цену. Дополнения во вводный период не считаются.
func CurrentEffectiveMonthly(sub models.Subscription, now time.Time) float64 {
	if IntroActive(sub, now) {
		return Round2(NormalizeToMonthly(*sub.IntroPrice, sub.BillingCycle, sub.CustomCycleDays))
	}
	return EffectiveMonthly(sub)
}

// EffectiveYearly возвращает годовую стоимость по обычной цене.
func EffectiveYearly(sub models.Subscription) float64 {
	return Round2(EffectiveMonthly(sub) * 12)
}

// Billable оставляет только активные и пробные подписки.
func Billable(subs []models.Subscription) []models.Subscription {
	out := make([]models.Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.IsBillable() {
			out = append(out, sub)
		}
	}
	return out
}

// TotalMonthly суммирует текущую месячную стоимость активных и пробных подписок.
func TotalMonthly(subs []models.Subscription, now time.Time) float64 {
	var total float64
	for _, sub := range subs {
		if !sub.IsBillable() {
			continue
		}
		total += CurrentEffectiveMonthly(sub, now)
	}
	return Round2(total)
}

// TotalYearly возвращает годовую сумму от округленной месячной.
func TotalYearly(subs []models.Subscription, now time.Time) float64 {
	return Round2(TotalMonthly(subs, now) * 12)
}

// AverageMonthly возвращает среднюю месячную стоимость активной подписки, 0 для пустого набора.
func AverageMonthly(subs []models.Subscription, now time.Time) float64 {
	billable := Billable(subs)
	if len(billable) == 0 {
		return 0
	}
	return TotalMonthly(billable, now) / float64(len(billable))
}

// CategoryBreakdown группирует расходы по категориям и сортирует по убыванию суммы.
func CategoryBreakdown(subs []models.Subscription, categories []models.Category, now time.Time) []models.CategoryBreakdown {
	billable := Billable(subs)
	grandTotal := TotalMonthly(billable, now)

	type bucket struct {
		total float64
		count int
	}

	order := make([]uuid.UUID, 0)
	buckets := make(map[uuid.UUID]*bucket)
	for _, sub := range billable {
		b, ok := buckets[sub.CategoryID]
		if !ok {
			b = &bucket{}
			buckets[sub.CategoryID] = b
			order = append(order, sub.CategoryID)
		}
		b.total += CurrentEffectiveMonthly(sub, now)
		b.count++
	}

	byID := make(map[uuid.UUID]models.Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}

	breakdown := make([]models.CategoryBreakdown, 0, len(order))
	for _, id := range order {
		b := buckets[id]
		row := models.CategoryBreakdown{
			CategoryID:   id,
			CategoryName: unknownCategoryName,
			CategoryIcon: unknownCategoryIcon,
			TotalMonthly: Round2(b.total),
			Count:        b.count,
		}
		if category, ok := byID[id]; ok {
			row.CategoryName = category.Name
			row.CategoryIcon = category.Icon
		}
		if grandTotal > 0 {
			row.Percentage = Round2(b.total / grandTotal * 100)
		}
		breakdown = append(breakdown, row)
	}

	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].TotalMonthly > breakdown[j].TotalMonthly
	})

	return breakdown
}
