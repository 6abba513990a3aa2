package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

// Columns is the fixed CSV column set, in export order.
var Columns = []string{
	"name",
	"categoryId",
	"tags",
	"billingCycle",
	"amount",
	"currency",
	"taxAmount",
	"status",
	"nextRenewalDate",
	"startDate",
	"autoRenew",
	"isShared",
	"payerId",
	"ownerId",
	"notes",
}

const tagSeparator = ";"

var ErrInvalidCSV = errors.New("invalid CSV")

// WriteCSV выгружает подписки в фиксированном наборе колонок.
func WriteCSV(w io.Writer, subs []models.Subscription) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return err
	}

	for _, sub := range subs {
		record := []string{
			sub.Name,
			formatUUID(sub.CategoryID),
			strings.Join(sub.Tags, tagSeparator),
			string(sub.BillingCycle),
			formatFloat(sub.Amount),
			sub.Currency,
			formatOptionalFloat(sub.TaxAmount),
			string(sub.Status),
			sub.NextRenewalDate.String(),
			sub.StartDate.String(),
			formatYesNo(sub.AutoRenew),
			formatYesNo(sub.IsShared),
			formatUUID(sub.PayerID),
			formatUUID(sub.OwnerID),
			sub.Notes,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadCSV разбирает строки в новые подписки. Строки без имени или суммы и строки с ошибками
// пропускаются, причина попадает в список сообщений.
func (d *Decoder) ReadCSV(r io.Reader, now time.Time) ([]models.Subscription, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	if _, ok := index["name"]; !ok {
		return nil, nil, fmt.Errorf("%w: missing name column", ErrInvalidCSV)
	}

	today := calendar.FromTime(now)
	subs := make([]models.Subscription, 0)
	messages := make([]string, 0)

	rowNum := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %v", ErrInvalidCSV, rowNum, err)
		}
		if isBlank(record) {
			continue
		}

		row := csvRow{index: index, record: record}
		sub, err := row.subscription(today, now)
		if err != nil {
			messages = append(messages, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		if err := d.validate.Struct(sub); err != nil {
			messages = append(messages, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		subs = append(subs, sub)
	}

	return subs, messages, nil
}

var errMissingNameOrAmount = errors.New("skipping row without name or amount")

type csvRow struct {
	index  map[string]int
	record []string
}

func (r csvRow) get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r csvRow) subscription(today calendar.Date, now time.Time) (models.Subscription, error) {
	name := r.get("name")
	rawAmount := r.get("amount")
	if name == "" || rawAmount == "" {
		return models.Subscription{}, errMissingNameOrAmount
	}

	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("invalid amount %q", rawAmount)
	}

	var tax float64
	if raw := r.get("taxAmount"); raw != "" {
		if tax, err = strconv.ParseFloat(raw, 64); err != nil {
			return models.Subscription{}, fmt.Errorf("invalid tax amount %q", raw)
		}
	}

	nextRenewal, err := parseDateOr(r.get("nextRenewalDate"), today)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("invalid next renewal date: %v", err)
	}
	startDate, err := parseDateOr(r.get("startDate"), today)
	if err != nil {
		return models.Subscription{}, fmt.Errorf("invalid start date: %v", err)
	}

	sub := models.Subscription{
		ID:              uuid.New(),
		Name:            name,
		CategoryID:      parseUUID(r.get("categoryId")),
		Tags:            splitTags(r.get("tags")),
		BillingCycle:    models.BillingCycle(valueOr(r.get("billingCycle"), string(models.CycleMonthly))),
		Amount:          amount,
		Currency:        valueOr(r.get("currency"), "USD"),
		TaxAmount:       tax,
		StartDate:       startDate,
		NextRenewalDate: nextRenewal,
		RenewalDayRule:  models.RuleExact,
		Status:          models.SubStatus(valueOr(r.get("status"), string(models.StatusActive))),
		AutoRenew:       r.get("autoRenew") == "yes",
		AlertDaysBefore: []int{7, 3, 1},
		PayerID:         parseUUID(r.get("payerId")),
		OwnerID:         parseUUID(r.get("ownerId")),
		UserIDs:         []uuid.UUID{},
		IsShared:        r.get("isShared") == "yes",
		AddOns:          []models.AddOn{},
		PriceHistory:    []models.PriceEntry{{Date: today, Amount: amount}},
		Notes:           r.get("notes"),
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}

	return sub, nil
}

func parseDateOr(value string, fallback calendar.Date) (calendar.Date, error) {
	if value == "" {
		return fallback, nil
	}
	return calendar.Parse(value)
}

func parseUUID(value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func splitTags(value string) []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(value, tagSeparator) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func formatUUID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatOptionalFloat(value float64) string {
	if value == 0 {
		return ""
	}
	return formatFloat(value)
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
