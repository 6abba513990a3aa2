package billing

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func monthlySub(amount float64) models.Subscription {
	return models.Subscription{
		ID:           uuid.New(),
		Name:         "Test",
		BillingCycle: models.CycleMonthly,
		Amount:       amount,
		Currency:     "USD",
		Status:       models.StatusActive,
	}
}

// TestNormalizeToMonthly проверяет коэффициенты всех циклов.
func TestNormalizeToMonthly(t *testing.T) {
	cases := []struct {
		cycle models.BillingCycle
		days  int
		want  float64
	}{
		{models.CycleWeekly, 0, 12 * 52.0 / 12.0},
		{models.CycleMonthly, 0, 12},
		{models.CycleQuarterly, 0, 4},
		{models.CycleBiannual, 0, 2},
		{models.CycleAnnual, 0, 1},
		{models.CycleCustom, 60, 12 * AvgDaysPerMonth / 60},
		{models.CycleCustom, 0, 12 * AvgDaysPerMonth / 30},
	}

	for _, tc := range cases {
		got := NormalizeToMonthly(12, tc.cycle, tc.days)
		if !almostEqual(got, tc.want) {
			t.Fatalf("%s/%d: expected %v, got %v", tc.cycle, tc.days, tc.want, got)
		}
	}
}

// TestNormalizeToMonthlyLinear проверяет линейность по сумме.
func TestNormalizeToMonthlyLinear(t *testing.T) {
	cycles := []models.BillingCycle{
		models.CycleWeekly, models.CycleMonthly, models.CycleQuarterly,
		models.CycleBiannual, models.CycleAnnual, models.CycleCustom,
	}
	for _, cycle := range cycles {
		for _, x := range []float64{0.01, 9.99, 17.5, 1200} {
			single := NormalizeToMonthly(x, cycle, 45)
			double := NormalizeToMonthly(2*x, cycle, 45)
			if !almostEqual(double, 2*single) {
				t.Fatalf("%s: expected %v, got %v", cycle, 2*single, double)
			}
		}
	}
}

// TestEffectiveMonthlyMixedAddOns проверяет нормализацию дополнений по их собственному циклу.
func TestEffectiveMonthlyMixedAddOns(t *testing.T) {
	sub := monthlySub(10)
	sub.TaxAmount = 1
	sub.AddOns = []models.AddOn{
		{ID: uuid.New(), Name: "Extra", Amount: 3, BillingCycle: models.CycleWeekly},
	}

	got := EffectiveMonthly(sub)
	want := Round2(11 + 3*52.0/12.0)
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// Summing first and normalizing by the parent cycle gives a different figure.
	naive := Round2(NormalizeToMonthly(14, models.CycleMonthly, 0))
	if got == naive {
		t.Fatalf("mixed cycles must not collapse to the pre-summed figure %v", naive)
	}
}

// TestEffectiveMonthlySharedCycle проверяет совпадение сумм при одинаковом цикле.
func TestEffectiveMonthlySharedCycle(t *testing.T) {
	sub := monthlySub(120)
	sub.BillingCycle = models.CycleAnnual
	sub.AddOns = []models.AddOn{
		{ID: uuid.New(), Name: "Family", Amount: 24, BillingCycle: models.CycleAnnual},
	}

	if got, want := EffectiveMonthly(sub), Round2(NormalizeToMonthly(144, models.CycleAnnual, 0)); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestCurrentEffectiveMonthlyIntro проверяет вводную цену до даты окончания.
func TestCurrentEffectiveMonthlyIntro(t *testing.T) {
	sub := monthlySub(20)
	intro := 5.0
	tomorrow := calendar.FromTime(testNow).AddDays(1)
	sub.HasIntroPricing = true
	sub.IntroPrice = &intro
	sub.IntroEndDate = &tomorrow
	sub.AddOns = []models.AddOn{{ID: uuid.New(), Name: "HD", Amount: 2, BillingCycle: models.CycleMonthly}}

	if got := CurrentEffectiveMonthly(sub, testNow); got != 5 {
		t.Fatalf("expected 5.00, got %v", got)
	}

	today := calendar.FromTime(testNow)
	sub.IntroEndDate = &today
	if got := CurrentEffectiveMonthly(sub, testNow); got != 22 {
		t.Fatalf("expected regular 22.00 once intro ends, got %v", got)
	}

	sub.IntroEndDate = &tomorrow
	sub.IntroPrice = nil
	if got := CurrentEffectiveMonthly(sub, testNow); got != 22 {
		t.Fatalf("expected regular price without intro amount, got %v", got)
	}
}

// TestTotals проверяет суммы только по активным и пробным подпискам.
func TestTotals(t *testing.T) {
	active := monthlySub(10.10)
	trial := monthlySub(4.91)
	trial.Status = models.StatusTrial
	paused := monthlySub(100)
	paused.Status = models.StatusPaused
	cancelled := monthlySub(100)
	cancelled.Status = models.StatusCancelled
	onHold := monthlySub(100)
	onHold.Status = models.StatusOnHold

	subs := []models.Subscription{active, trial, paused, cancelled, onHold}
	if got := TotalMonthly(subs, testNow); got != 15.01 {
		t.Fatalf("expected 15.01, got %v", got)
	}
	if got := TotalYearly(subs, testNow); got != 180.12 {
		t.Fatalf("expected 180.12, got %v", got)
	}
	if got := AverageMonthly(nil, testNow); got != 0 {
		t.Fatalf("expected 0 for empty set, got %v", got)
	}
}

// TestCategoryBreakdown проверяет группировку и проценты.
func TestCategoryBreakdown(t *testing.T) {
	streaming := models.Category{ID: uuid.New(), Name: "Streaming", Icon: "tv"}
	music := models.Category{ID: uuid.New(), Name: "Music", Icon: "music"}
	orphan := uuid.New()

	a := monthlySub(10)
	a.CategoryID = streaming.ID
	b := monthlySub(20)
	b.CategoryID = streaming.ID
	c := monthlySub(10)
	c.CategoryID = music.ID
	d := monthlySub(10)
	d.CategoryID = orphan
	e := monthlySub(500)
	e.CategoryID = music.ID
	e.Status = models.StatusCancelled

	got := CategoryBreakdown([]models.Subscription{a, b, c, d, e}, []models.Category{streaming, music}, testNow)
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(got))
	}
	if got[0].CategoryID != streaming.ID || got[0].TotalMonthly != 30 || got[0].Count != 2 || got[0].Percentage != 60 {
		t.Fatalf("unexpected first group: %+v", got[0])
	}
	if got[2].CategoryName != "Unknown" || got[2].CategoryIcon != "package" {
		t.Fatalf("expected unknown fallback, got %+v", got[2])
	}

	if empty := CategoryBreakdown(nil, nil, testNow); len(empty) != 0 {
		t.Fatalf("expected empty breakdown, got %v", empty)
	}
}

// TestCategoryBreakdownZeroTotal проверяет нулевой процент при нулевой сумме.
func TestCategoryBreakdownZeroTotal(t *testing.T) {
	free := monthlySub(0)
	got := CategoryBreakdown([]models.Subscription{free}, nil, testNow)
	if len(got) != 1 || got[0].Percentage != 0 {
		t.Fatalf("expected zero percentage, got %+v", got)
	}
}

// TestFormatEffectiveCost проверяет строковое представление стоимости.
func TestFormatEffectiveCost(t *testing.T) {
	sub := monthlySub(9.99)
	if got := FormatEffectiveCost(sub, testNow); got != "$9.99/mo" {
		t.Fatalf("unexpected format: %s", got)
	}

	sub.BillingCycle = models.CycleAnnual
	sub.Amount = 1200
	if got := FormatEffectiveCost(sub, testNow); got != "$1,200.00/yr ($100.00/mo)" {
		t.Fatalf("unexpected format: %s", got)
	}

	sub.Currency = "CHF"
	sub.BillingCycle = models.CycleCustom
	sub.CustomCycleDays = 30
	sub.Amount = 30
	if got := FormatEffectiveCost(sub, testNow); got != "CHF 30.00/cycle (CHF 30.44/mo)" {
		t.Fatalf("unexpected format: %s", got)
	}
}
