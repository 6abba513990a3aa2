package insights

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/billing"
	"example.com/subtracker/backend/internal/models"
)

// DefaultDuplicateThreshold is the minimum name similarity reported as a duplicate.
const DefaultDuplicateThreshold = 0.8

// MinOverlapGroup is the smallest category group reported as an overlap.
const MinOverlapGroup = 3

const (
	lowValueMaxScore  = 2
	missingValueScore = 5
	exactMatchReason  = "Exact name match"
)

type CostedSubscription struct {
	Subscription     models.Subscription `json:"subscription"`
	EffectiveMonthly float64             `json:"effective_monthly"`
}

type DuplicatePair struct {
	First  models.Subscription `json:"first"`
	Second models.Subscription `json:"second"`
	Score  float64             `json:"score"`
	Reason string              `json:"reason"`
}

type CategoryOverlap struct {
	CategoryID    uuid.UUID             `json:"category_id"`
	CategoryName  string                `json:"category_name"`
	Subscriptions []models.Subscription `json:"subscriptions"`
	TotalMonthly  float64               `json:"total_monthly"`
}

type PriceIncrease struct {
	Subscription   models.Subscription `json:"subscription"`
	PreviousAmount float64             `json:"previous_amount"`
	CurrentAmount  float64             `json:"current_amount"`
	Increase       float64             `json:"increase"`
	PercentChange  float64             `json:"percent_change"`
}

type Report struct {
	Waste            []CostedSubscription `json:"waste"`
	LowValueHighCost []CostedSubscription `json:"low_value_high_cost"`
	Duplicates       []DuplicatePair      `json:"duplicates"`
	CategoryOverlaps []CategoryOverlap    `json:"category_overlaps"`
	PriceIncreases   []PriceIncrease      `json:"price_increases"`
	PotentialSavings float64              `json:"potential_monthly_savings"`
}

// Waste возвращает подписки, которыми давно не пользовались, от самых дорогих.
func Waste(subs []models.Subscription, now time.Time) []CostedSubscription {
	out := make([]CostedSubscription, 0)
	for _, sub := range billing.Billable(subs) {
		if sub.LastUsed != models.UsageOver90 && sub.LastUsed != models.UsageNever {
			continue
		}
		out = append(out, costed(sub, now))
	}
	sortByCostDesc(out)
	return out
}

// LowValueHighCost возвращает подписки с низкой оценкой и стоимостью в верхней четверти.
func LowValueHighCost(subs []models.Subscription, now time.Time) []CostedSubscription {
	billable := billing.Billable(subs)

	costs := make([]float64, 0, len(billable))
	for _, sub := range billable {
		costs = append(costs, billing.CurrentEffectiveMonthly(sub, now))
	}
	p75 := Percentile75(costs)

	out := make([]CostedSubscription, 0)
	for _, sub := range billable {
		score := sub.ValueScore
		if score == 0 {
			score = missingValueScore
		}
		item := costed(sub, now)
		if score <= lowValueMaxScore && item.EffectiveMonthly >= p75 {
			out = append(out, item)
		}
	}
	sortByCostDesc(out)
	return out
}

// Percentile75 берет элемент floor(0.75*n) отсортированного массива. Пустой массив дает 0.
func Percentile75(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[int(math.Floor(0.75*float64(len(sorted))))]
}

// Duplicates сравнивает имена попарно и возвращает пары с похожестью не ниже threshold.
func Duplicates(subs []models.Subscription, threshold float64) []DuplicatePair {
	names := make([]string, len(subs))
	for i, sub := range subs {
		names[i] = normalizeName(sub.Name)
	}

	pairs := make([]DuplicatePair, 0)
	for i := 0; i < len(subs); i++ {
		for j := i + 1; j < len(subs); j++ {
			score := Similarity(names[i], names[j])
			if score < threshold {
				continue
			}
			pairs = append(pairs, DuplicatePair{
				First:  subs[i],
				Second: subs[j],
				Score:  score,
				Reason: duplicateReason(score),
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Score > pairs[j].Score
	})
	return pairs
}

// Similarity возвращает 1 - levenshtein/max(len) по рунам. Две пустые строки совпадают.
func Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// SimilarByCategory группирует активные подписки по категориям и оставляет группы от трех штук.
// TotalMonthly заполняет вызывающая сторона.
func SimilarByCategory(subs []models.Subscription, categories []models.Category) []CategoryOverlap {
	byID := make(map[uuid.UUID]models.Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}

	order := make([]uuid.UUID, 0)
	groups := make(map[uuid.UUID][]models.Subscription)
	for _, sub := range billing.Billable(subs) {
		if _, ok := groups[sub.CategoryID]; !ok {
			order = append(order, sub.CategoryID)
		}
		groups[sub.CategoryID] = append(groups[sub.CategoryID], sub)
	}

	out := make([]CategoryOverlap, 0)
	for _, id := range order {
		members := groups[id]
		if len(members) < MinOverlapGroup {
			continue
		}
		name := "Unknown"
		if category, ok := byID[id]; ok {
			name = category.Name
		}
		out = append(out, CategoryOverlap{
			CategoryID:    id,
			CategoryName:  name,
			Subscriptions: members,
		})
	}
	return out
}

// PriceIncreases возвращает подписки, у которых последняя цена выше предыдущей.
func PriceIncreases(subs []models.Subscription) []PriceIncrease {
	out := make([]PriceIncrease, 0)
	for _, sub := range subs {
		history := sub.PriceHistory
		if len(history) < 2 {
			continue
		}
		previous := history[len(history)-2].Amount
		current := history[len(history)-1].Amount
		if current <= previous {
			continue
		}

		item := PriceIncrease{
			Subscription:   sub,
			PreviousAmount: previous,
			CurrentAmount:  current,
			Increase:       billing.Round2(current - previous),
		}
		if previous > 0 {
			item.PercentChange = billing.Round2((current - previous) / previous * 100)
		}
		out = append(out, item)
	}
	return out
}

// BuildReport собирает все детекторы и заполняет суммы по категориям.
func BuildReport(subs []models.Subscription, categories []models.Category, now time.Time) Report {
	report := Report{
		Waste:            Waste(subs, now),
		LowValueHighCost: LowValueHighCost(subs, now),
		Duplicates:       Duplicates(billing.Billable(subs), DefaultDuplicateThreshold),
		CategoryOverlaps: SimilarByCategory(subs, categories),
		PriceIncreases:   PriceIncreases(subs),
	}

	for i := range report.CategoryOverlaps {
		var total float64
		for _, sub := range report.CategoryOverlaps[i].Subscriptions {
			total += billing.CurrentEffectiveMonthly(sub, now)
		}
		report.CategoryOverlaps[i].TotalMonthly = billing.Round2(total)
	}

	var savings float64
	for _, item := range report.Waste {
		savings += item.EffectiveMonthly
	}
	report.PotentialSavings = billing.Round2(savings)

	return report
}

func costed(sub models.Subscription, now time.Time) CostedSubscription {
	return CostedSubscription{Subscription: sub, EffectiveMonthly: billing.CurrentEffectiveMonthly(sub, now)}
}

func sortByCostDesc(items []CostedSubscription) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].EffectiveMonthly > items[j].EffectiveMonthly
	})
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func duplicateReason(score float64) string {
	if score == 1 {
		return exactMatchReason
	}
	return fmt.Sprintf("Names are %d%% similar", int(math.Round(score*100)))
}
