package billing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"example.com/subtracker/backend/internal/models"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "C$",
	"AUD": "A$",
	"JPY": "¥",
}

var cycleSuffixes = map[models.BillingCycle]string{
	models.CycleAnnual:    "/yr",
	models.CycleQuarterly: "/qtr",
	models.CycleBiannual:  "/6mo",
	models.CycleWeekly:    "/wk",
}

// FormatCurrency форматирует сумму с символом валюты и разделителями разрядов.
func FormatCurrency(amount float64, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	whole := groupThousands(strconv.FormatInt(cents/100, 10))
	number := fmt.Sprintf("%s.%02d", whole, cents%100)

	symbol, ok := currencySymbols[code]
	if !ok {
		return sign + code + " " + number
	}
	return sign + symbol + number
}

// FormatEffectiveCost возвращает строку вида "$120.00/yr ($10.00/mo)".
func FormatEffectiveCost(sub models.Subscription, now time.Time) string {
	monthly := FormatCurrency(CurrentEffectiveMonthly(sub, now), sub.Currency)
	if sub.BillingCycle == models.CycleMonthly {
		return monthly + "/mo"
	}

	suffix, ok := cycleSuffixes[sub.BillingCycle]
	if !ok {
		suffix = "/cycle"
	}

	return FormatCurrency(sub.CycleAmount(), sub.Currency) + suffix + " (" + monthly + "/mo)"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
