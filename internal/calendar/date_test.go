package calendar

import (
	"encoding/json"
	"testing"
	"time"
)

// TestAddMonthsClampsToMonthEnd проверяет прижатие к последнему дню месяца.
func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	cases := []struct {
		from   string
		months int
		want   string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-03-31", 1, "2025-04-30"},
		{"2025-01-15", 1, "2025-02-15"},
		{"2025-11-30", 3, "2026-02-28"},
		{"2025-12-31", 6, "2026-06-30"},
	}

	for _, tc := range cases {
		got := MustParse(tc.from).AddMonths(tc.months).String()
		if got != tc.want {
			t.Fatalf("%s + %d months: expected %s, got %s", tc.from, tc.months, tc.want, got)
		}
	}
}

// TestAddYearsLeapDay проверяет перенос 29 февраля в невисокосный год.
func TestAddYearsLeapDay(t *testing.T) {
	got := MustParse("2024-02-29").AddYears(1).String()
	if got != "2025-02-28" {
		t.Fatalf("expected 2025-02-28, got %s", got)
	}
}

// TestNextMonday проверяет поиск следующего понедельника.
func TestNextMonday(t *testing.T) {
	// 2025-03-08 is a Saturday.
	if got := MustParse("2025-03-08").NextMonday().String(); got != "2025-03-10" {
		t.Fatalf("expected 2025-03-10, got %s", got)
	}
	if got := MustParse("2025-03-09").NextMonday().String(); got != "2025-03-10" {
		t.Fatalf("expected 2025-03-10, got %s", got)
	}
	if got := MustParse("2025-03-10").NextMonday().String(); got != "2025-03-17" {
		t.Fatalf("expected 2025-03-17, got %s", got)
	}
}

// TestDaysUntil проверяет разницу дат в днях.
func TestDaysUntil(t *testing.T) {
	from := MustParse("2025-03-01")
	if got := from.DaysUntil(MustParse("2025-03-06")); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := from.DaysUntil(MustParse("2025-02-27")); got != -2 {
		t.Fatalf("expected -2, got %d", got)
	}
	// Crosses the end of DST in most northern zones; dates are UTC so the count is exact.
	if got := MustParse("2025-10-20").DaysUntil(MustParse("2025-11-03")); got != 14 {
		t.Fatalf("expected 14, got %d", got)
	}
}

// TestFromTimeDropsClock проверяет отбрасывание времени суток.
func TestFromTimeDropsClock(t *testing.T) {
	at := time.Date(2025, 6, 1, 23, 59, 0, 0, time.FixedZone("X", 3*3600))
	if got := FromTime(at).String(); got != "2025-06-01" {
		t.Fatalf("expected 2025-06-01, got %s", got)
	}
}

// TestDateJSON проверяет сериализацию даты.
func TestDateJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		D Date  `json:"d"`
		P *Date `json:"p,omitempty"`
	}{D: MustParse("2025-04-05")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"d":"2025-04-05"}` {
		t.Fatalf("unexpected json: %s", payload)
	}

	var decoded struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2025-04-05T10:00:00Z"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.D.String() != "2025-04-05" {
		t.Fatalf("expected 2025-04-05, got %s", decoded.D)
	}

	if err := json.Unmarshal([]byte(`{"d":"05/04/2025"}`), &decoded); err == nil {
		t.Fatal("expected error for invalid layout")
	}
}
