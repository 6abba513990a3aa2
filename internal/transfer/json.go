package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"example.com/subtracker/backend/internal/models"
)

// FormatVersion is written into every JSON export.
const FormatVersion = 1

var (
	ErrInvalidJSON   = errors.New("invalid JSON")
	ErrInvalidFormat = errors.New("invalid export format")
)

type Export struct {
	Version          int                      `json:"version"`
	ExportDate       time.Time                `json:"exportDate"`
	Subscriptions    []models.Subscription    `json:"subscriptions"`
	HouseholdMembers []models.HouseholdMember `json:"householdMembers"`
	Categories       []models.Category        `json:"categories"`
	Settings         *models.AppSettings      `json:"settings,omitempty"`
}

type ImportResult struct {
	Success               bool     `json:"success"`
	SubscriptionsImported int      `json:"subscriptionsImported"`
	MembersImported       int      `json:"membersImported"`
	CategoriesImported    int      `json:"categoriesImported"`
	Errors                []string `json:"errors"`
}

// Failed строит результат неудачного импорта.
func Failed(messages ...string) ImportResult {
	return ImportResult{Success: false, Errors: append([]string{}, messages...)}
}

// NewExport собирает снимок всех коллекций на момент now.
func NewExport(subs []models.Subscription, members []models.HouseholdMember, categories []models.Category, settings *models.AppSettings, now time.Time) Export {
	return Export{
		Version:          FormatVersion,
		ExportDate:       now.UTC(),
		Subscriptions:    nonNil(subs),
		HouseholdMembers: nonNil(members),
		Categories:       nonNil(categories),
		Settings:         settings,
	}
}

// EncodeJSON пишет снимок с отступами.
func EncodeJSON(w io.Writer, data Export) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

type Decoder struct {
	validate *validator.Validate
}

// NewDecoder создает разборщик импорта с проверкой по тегам моделей.
func NewDecoder(validate *validator.Validate) *Decoder {
	if validate == nil {
		validate = validator.New()
	}
	return &Decoder{validate: validate}
}

// DecodeJSON читает снимок. Требуются version и subscriptions; каждая запись проверяется валидатором.
func (d *Decoder) DecodeJSON(r io.Reader) (Export, error) {
	var data Export
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return data, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if data.Version == 0 || data.Subscriptions == nil {
		return data, ErrInvalidFormat
	}

	for i, sub := range data.Subscriptions {
		if err := d.validate.Struct(sub); err != nil {
			return data, fmt.Errorf("%w: subscription %d: %v", ErrInvalidFormat, i+1, err)
		}
		if err := sub.CheckDates(); err != nil {
			return data, fmt.Errorf("%w: subscription %d: %v", ErrInvalidFormat, i+1, err)
		}
	}
	for i, member := range data.HouseholdMembers {
		if err := d.validate.Struct(member); err != nil {
			return data, fmt.Errorf("%w: member %d: %v", ErrInvalidFormat, i+1, err)
		}
	}
	for i, category := range data.Categories {
		if err := d.validate.Struct(category); err != nil {
			return data, fmt.Errorf("%w: category %d: %v", ErrInvalidFormat, i+1, err)
		}
	}
	if data.Settings != nil {
		if err := d.validate.Struct(data.Settings); err != nil {
			return data, fmt.Errorf("%w: settings: %v", ErrInvalidFormat, err)
		}
	}

	return data, nil
}

// Imported возвращает результат успешного JSON-импорта.
func (e Export) Imported() ImportResult {
	return ImportResult{
		Success:               true,
		SubscriptionsImported: len(e.Subscriptions),
		MembersImported:       len(e.HouseholdMembers),
		CategoriesImported:    len(e.Categories),
		Errors:                []string{},
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
