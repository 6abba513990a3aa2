package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layout is the wire and storage format of a calendar date.
const Layout = "2006-01-02"

// Date хранит календарную дату; время всегда полночь UTC.
type Date struct {
	time.Time
}

// New создает дату по году, месяцу и дню с нормализацией как в time.Date.
func New(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime отбрасывает время суток и зону, сохраняя календарную дату.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return New(y, m, d)
}

// Today возвращает текущую дату по локальным часам.
func Today(now time.Time) Date {
	return FromTime(now.Local())
}

// Parse разбирает дату в формате YYYY-MM-DD.
func Parse(value string) (Date, error) {
	parsed, err := time.Parse(Layout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", value, err)
	}

	return FromTime(parsed), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(value string) Date {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return d.Format(Layout)
}

func (d Date) IsZero() bool {
	return d.Time.IsZero()
}

func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// AddDays сдвигает дату на n дней.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonths прибавляет календарные месяцы. Если в целевом месяце нет такого дня,
// результат прижимается к последнему дню месяца (31 янв + 1 мес = 28/29 фев).
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := DaysIn(first.Year(), first.Month())
	if day > last {
		day = last
	}
	return New(first.Year(), first.Month(), day)
}

// AddYears прибавляет годы с тем же правилом прижатия (29 фев + 1 год = 28 фев).
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// LastDayOfMonth возвращает последний день месяца даты.
func (d Date) LastDayOfMonth() Date {
	y, m, _ := d.Date()
	return New(y, m, DaysIn(y, m))
}

// IsWeekend сообщает, приходится ли дата на субботу или воскресенье.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// NextMonday возвращает ближайший понедельник строго после даты.
func (d Date) NextMonday() Date {
	delta := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return d.AddDays(delta)
}

// DaysUntil возвращает число целых дней от d до other (отрицательное, если other раньше).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// DaysIn возвращает количество дней в месяце.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}

	// Full timestamps are accepted and truncated to their calendar date.
	if len(raw) > len(Layout) {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			*d = FromTime(t)
			return nil
		}
	}

	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src interface{}) error {
	switch value := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = FromTime(value)
		return nil
	case string:
		parsed, err := Parse(value)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(value))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into calendar.Date", src)
	}
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}
