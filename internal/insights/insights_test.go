package insights

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func sub(name string, amount float64) models.Subscription {
	return models.Subscription{
		ID:              uuid.New(),
		Name:            name,
		BillingCycle:    models.CycleMonthly,
		Amount:          amount,
		Currency:        "USD",
		NextRenewalDate: calendar.MustParse("2025-03-20"),
		RenewalDayRule:  models.RuleExact,
		Status:          models.StatusActive,
	}
}

// TestDuplicatesExactMatch проверяет совпадение имен без учета регистра и пробелов.
func TestDuplicatesExactMatch(t *testing.T) {
	pairs := Duplicates([]models.Subscription{sub("Netflix", 10), sub("netflix ", 12)}, DefaultDuplicateThreshold)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if pairs[0].Score != 1 || pairs[0].Reason != "Exact name match" {
		t.Fatalf("unexpected pair %+v", pairs[0])
	}
}

// TestDuplicatesSimilarNames проверяет причину для частичного совпадения и порог.
func TestDuplicatesSimilarNames(t *testing.T) {
	pairs := Duplicates([]models.Subscription{sub("Spotify", 10), sub("Spotifyy", 10), sub("Hulu", 8)}, DefaultDuplicateThreshold)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	// distance 1 over 8 runes.
	if pairs[0].Score != 0.875 || pairs[0].Reason != "Names are 88% similar" {
		t.Fatalf("unexpected pair %+v", pairs[0])
	}
}

// TestDuplicatesOrder проверяет сортировку по убыванию похожести.
func TestDuplicatesOrder(t *testing.T) {
	pairs := Duplicates([]models.Subscription{sub("Disney Plus", 1), sub("Disney Plux", 1), sub("Max", 1), sub("max", 1)}, DefaultDuplicateThreshold)
	if len(pairs) != 2 || pairs[0].Score != 1 || pairs[1].Score >= 1 {
		t.Fatalf("unexpected order %+v", pairs)
	}
}

// TestSimilarityEmpty проверяет две пустые строки.
func TestSimilarityEmpty(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
	if got := Similarity("", "abc"); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

// TestWaste проверяет отбор неиспользуемых подписок.
func TestWaste(t *testing.T) {
	cheap := sub("Cheap", 5)
	cheap.LastUsed = models.UsageNever
	pricey := sub("Pricey", 30)
	pricey.LastUsed = models.UsageOver90
	used := sub("Used", 50)
	used.LastUsed = models.UsageWithin7
	unknown := sub("Unknown", 40)
	paused := sub("Paused", 100)
	paused.LastUsed = models.UsageNever
	paused.Status = models.StatusPaused

	items := Waste([]models.Subscription{cheap, pricey, used, unknown, paused}, now)
	if len(items) != 2 || items[0].Subscription.ID != pricey.ID || items[1].Subscription.ID != cheap.ID {
		t.Fatalf("unexpected waste %+v", items)
	}
}

// TestLowValueHighCost проверяет порог по 75-му процентилю.
func TestLowValueHighCost(t *testing.T) {
	a := sub("A", 10)
	a.ValueScore = 1
	b := sub("B", 20)
	c := sub("C", 30)
	c.ValueScore = 4
	d := sub("D", 40)
	d.ValueScore = 2

	// costs 10 20 30 40, p75 index 3 -> 40.
	items := LowValueHighCost([]models.Subscription{a, b, c, d}, now)
	if len(items) != 1 || items[0].Subscription.ID != d.ID {
		t.Fatalf("unexpected items %+v", items)
	}
}

// TestLowValueMissingScore проверяет, что отсутствие оценки не считается низкой ценностью.
func TestLowValueMissingScore(t *testing.T) {
	if items := LowValueHighCost([]models.Subscription{sub("Solo", 99)}, now); len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

// TestPercentile75Empty проверяет пустой набор.
func TestPercentile75Empty(t *testing.T) {
	if got := Percentile75(nil); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

// TestSimilarByCategory проверяет минимальный размер группы.
func TestSimilarByCategory(t *testing.T) {
	streaming := models.Category{ID: uuid.New(), Name: "Streaming"}
	music := models.Category{ID: uuid.New(), Name: "Music"}

	subs := make([]models.Subscription, 0)
	for _, name := range []string{"Netflix", "Hulu", "Max"} {
		s := sub(name, 10)
		s.CategoryID = streaming.ID
		subs = append(subs, s)
	}
	for _, name := range []string{"Spotify", "Tidal"} {
		s := sub(name, 10)
		s.CategoryID = music.ID
		subs = append(subs, s)
	}

	groups := SimilarByCategory(subs, []models.Category{streaming, music})
	if len(groups) != 1 || groups[0].CategoryName != "Streaming" || len(groups[0].Subscriptions) != 3 {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if groups[0].TotalMonthly != 0 {
		t.Fatal("detector must leave totals to the caller")
	}

	report := BuildReport(subs, []models.Category{streaming, music}, now)
	if report.CategoryOverlaps[0].TotalMonthly != 30 {
		t.Fatalf("expected report total 30, got %v", report.CategoryOverlaps[0].TotalMonthly)
	}
}

// TestPriceIncreases проверяет сравнение двух последних записей истории.
func TestPriceIncreases(t *testing.T) {
	up := sub("Up", 12)
	up.PriceHistory = []models.PriceEntry{
		{Date: calendar.MustParse("2024-01-01"), Amount: 10},
		{Date: calendar.MustParse("2025-01-01"), Amount: 12},
	}
	down := sub("Down", 8)
	down.PriceHistory = []models.PriceEntry{
		{Date: calendar.MustParse("2024-01-01"), Amount: 10},
		{Date: calendar.MustParse("2025-01-01"), Amount: 8},
	}
	single := sub("Single", 8)
	single.PriceHistory = []models.PriceEntry{{Date: calendar.MustParse("2024-01-01"), Amount: 8}}

	items := PriceIncreases([]models.Subscription{up, down, single})
	if len(items) != 1 || items[0].Subscription.ID != up.ID {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Increase != 2 || items[0].PercentChange != 20 {
		t.Fatalf("unexpected change %+v", items[0])
	}
}

// TestBuildReportEmpty проверяет пустые результаты без паники.
func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport(nil, nil, now)
	if len(report.Waste) != 0 || len(report.Duplicates) != 0 || report.PotentialSavings != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}
