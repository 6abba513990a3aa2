package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/auth"
	"example.com/subtracker/backend/internal/billing"
	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
	"example.com/subtracker/backend/internal/renewal"
)

type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Settings      SettingsStore
	Notifier      Publisher
	Logger        *slog.Logger
	Now           Clock
}

// NewSubscriptionHandler создает обработчик CRUD-операций с подписками.
func NewSubscriptionHandler(subs SubscriptionStore, settings SettingsStore, notifier Publisher, logger *slog.Logger, now Clock) *SubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionHandler{
		Subscriptions: subs,
		Settings:      settings,
		Notifier:      notifier,
		Logger:        logger,
		Now:           now.orDefault(),
	}
}

type SubscriptionResponse struct {
	models.Subscription
	EffectiveMonthly float64 `json:"effective_monthly"`
	EffectiveYearly  float64 `json:"effective_yearly"`
	FormattedCost    string  `json:"formatted_cost"`
	HasSensitiveNote bool    `json:"has_sensitive_notes"`
}

type SnoozeRequest struct {
	Until *string `json:"until"`
}

type PriceChangeRequest struct {
	Date   string   `json:"date"`
	Amount *float64 `json:"amount" validate:"required,gte=0"`
	Note   string   `json:"note" validate:"max=500"`
}

type SensitiveNotesRequest struct {
	Notes string `json:"notes" validate:"max=10000"`
}

type SensitiveNotesResponse struct {
	Notes string `json:"notes"`
}

// List возвращает все подписки с рассчитанной стоимостью.
func (h *SubscriptionHandler) List(c echo.Context) error {
	subs, err := h.Subscriptions.List(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	now := h.Now()
	response := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		response = append(response, toSubscriptionResponse(sub, now))
	}

	return c.JSON(http.StatusOK, response)
}

// Get возвращает подписку по идентификатору.
func (h *SubscriptionHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid subscription id")
	}

	sub, err := h.Subscriptions.GetByID(c.Request().Context(), id)
	if err != nil {
		return storeError(c, err, "subscription not found")
	}

	return c.JSON(http.StatusOK, toSubscriptionResponse(sub, h.Now()))
}

// Create добавляет подписку, заполняя пропущенные поля из настроек.
func (h *SubscriptionHandler) Create(c echo.Context) error {
	var sub models.Subscription
	if err := c.Bind(&sub); err != nil {
		return badRequest(c, "invalid payload")
	}

	ctx := c.Request().Context()
	settings, err := h.Settings.Get(ctx)
	if err != nil {
		return serverError(c)
	}

	now := h.Now()
	prepareSubscription(&sub, settings, calendar.Today(now))
	if err := c.Validate(&sub); err != nil {
		return badRequest(c, "validation failed")
	}

	created, err := h.Subscriptions.Create(ctx, sub)
	if err != nil {
		return storeError(c, err, "subscription not found")
	}

	publish(h.Notifier, notifications.Subscriptions)
	return c.JSON(http.StatusCreated, toSubscriptionResponse(created, now))
}

// Update частично обновляет подписку: тело запроса накладывается на сохраненный документ.
func (h *SubscriptionHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid subscription id")
	}

	body, err := readObject(c)
	if err != nil {
		return badRequest(c, "invalid payload")
	}

	updated, err := h.Subscriptions.Update(c.Request().Context(), id, func(sub *models.Subscription) error {
		createdAt := sub.CreatedAt
		sensitive := sub.SensitiveNotes
		if err := json.Unmarshal(body, sub); err != nil {
			return errValidation
		}
		sub.CreatedAt = createdAt
		sub.SensitiveNotes = sensitive
		sub.Name = strings.TrimSpace(sub.Name)
		if err := c.Validate(sub); err != nil {
			return errValidation
		}
		return sub.CheckDates()
	})
	if err != nil {
		return storeError(c, err, "subscription not found")
	}

	publish(h.Notifier, notifications.Subscriptions)
	return c.JSON(http.StatusOK, toSubscriptionResponse(updated, h.Now()))
}

// Delete удаляет подписку.
func (h *SubscriptionHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid subscription id")
	}

	if err := h.Subscriptions.Delete(c.Request().Context(), id); err != nil {
		return storeError(c, err, "subscription not found")
	}

	publish(h.Notifier, notifications.Subscriptions)
	return c.NoContent(http.StatusNoContent)
}

// Snooze откладывает уведомления до указанной даты; null снимает отсрочку.
func (h *SubscriptionHandler) Snooze(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid subscription id")
	}

	var req SnoozeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}

	var until *calendar.Date
	if req.Until != nil {
		date, set, err := parseOptionalDate(*req.Until)
		if err != nil {
			return badRequest(c, "until must be a YYYY-MM-DD date")
		}
		if set {
			if !date.After(calendar.Today(h.Now())) {
				return badRequest(c, "until must be in the future")
			}
			until = &date
		}
	}

	updated, err := h.Subscriptions.Update(c.Request().Context(), id, func(sub *models.Subscription) error {
		sub.AlertSnoozedUntil = until
		return nil
	})
	if err != nil {
		return storeError(c, err, "subscription not found")
	}

	publish(h.Notifier, notifications.Subscriptions)
	return c.JSON(http.StatusOK, toSubscriptionResponse(updated, h.Now()))
}

// RecordPrice добавляет запись в историю цен и делает ее текущей ценой.
func (h *SubscriptionHandler) RecordPrice(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid subscription id")
	}

	var req PriceChangeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	date, set, err := parseOptionalDate(req.Date)
	if err != nil {
		return badRequest(c, "date must be a YYYY-MM-DD date")
	}
	if !set {
		date = calendar.Today(h.Now())
	}

	entry := models.PriceEntry{Date: date, Amount: *req.Amount, Note: strings.TrimSpace(req.Note)}
	updated, err := h.Subscriptions.Update(c.Request().Context(), id, func(sub *models.Subscription) error {
		return sub.AppendPrice(entry)
	})
	if err != nil {
		return storeError(c, err, "subscription not found")
	}

	publish(h.Notifier, notifications.Subscriptions)
	return c.JSON(http.StatusOK, toSubscriptionResponse(updated, h.Now()))
}

// GetSensitiveNotes расшифровывает защищенную заметку ключом текущей PIN-сессии.
func (h *SubscriptionHandler) GetSensitiveNotes(c echo.Context) error {
	_, key, ok := auth.SessionFromContext(c)
	if !ok {
		return unauthorized(c, "pin session is locked")
	}

	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid subscription id")
	}

	sub, err := h.Subscriptions.GetByID(c.Request().Context(), id)
	if err != nil {
		return storeError(c, err, "subscription not found")
	}

	if sub.SensitiveNotes == "" {
		return c.JSON(http.StatusOK, SensitiveNotesResponse{})
	}

	notes, ok := auth.DecryptNote(sub.SensitiveNotes, key)
	if !ok {
		h.Logger.Warn("sensitive notes could not be decrypted", "subscription_id", id.String())
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "unable to decrypt notes"})
	}

	return c.JSON(http.StatusOK, SensitiveNotesResponse{Notes: notes})
}

// PutSensitiveNotes шифрует и сохраняет защищенную заметку. Пустая строка удаляет заметку.
func (h *SubscriptionHandler) PutSensitiveNotes(c echo.Context) error {
	_, key, ok := auth.SessionFromContext(c)
	if !ok {
		return unauthorized(c, "pin session is locked")
	}

	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid subscription id")
	}

	var req SensitiveNotesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	encrypted := ""
	if req.Notes != "" {
		var err error
		encrypted, err = auth.EncryptNote(req.Notes, key)
		if err != nil {
			return serverError(c)
		}
	}

	updated, err := h.Subscriptions.Update(c.Request().Context(), id, func(sub *models.Subscription) error {
		sub.SensitiveNotes = encrypted
		return nil
	})
	if err != nil {
		return storeError(c, err, "subscription not found")
	}

	publish(h.Notifier, notifications.Subscriptions)
	return c.JSON(http.StatusOK, toSubscriptionResponse(updated, h.Now()))
}

// prepareSubscription заполняет значения по умолчанию для новой подписки.
func prepareSubscription(sub *models.Subscription, settings models.AppSettings, today calendar.Date) {
	sub.ID = uuid.Nil
	sub.Name = strings.TrimSpace(sub.Name)
	sub.SensitiveNotes = ""

	if sub.BillingCycle == "" {
		sub.BillingCycle = models.CycleMonthly
	}
	if sub.Currency == "" {
		sub.Currency = settings.DefaultCurrency
	}
	sub.Currency = strings.ToUpper(sub.Currency)
	if sub.Status == "" {
		sub.Status = models.StatusActive
	}
	if sub.RenewalDayRule == "" {
		sub.RenewalDayRule = models.RuleExact
	}
	if sub.AlertDaysBefore == nil {
		sub.AlertDaysBefore = append([]int{}, settings.DefaultAlertDays...)
	}

	if sub.StartDate.IsZero() {
		sub.StartDate = today
	}
	if sub.NextRenewalDate.IsZero() {
		sub.NextRenewalDate = renewal.AdvanceToFuture(renewal.ApplyDayRule(sub.StartDate, sub.RenewalDayRule), sub.BillingCycle, sub.CustomCycleDays, sub.RenewalDayRule, today)
	}
	if sub.HasIntroPricing && sub.IntroEndDate == nil && sub.IntroDurationDays > 0 {
		end := sub.StartDate.AddDays(sub.IntroDurationDays)
		sub.IntroEndDate = &end
	}

	if len(sub.PriceHistory) == 0 {
		sub.PriceHistory = []models.PriceEntry{{Date: today, Amount: sub.Amount}}
	}
	if sub.Tags == nil {
		sub.Tags = []string{}
	}
	if sub.UserIDs == nil {
		sub.UserIDs = []uuid.UUID{}
	}
	if sub.AddOns == nil {
		sub.AddOns = []models.AddOn{}
	}
	for i := range sub.AddOns {
		if sub.AddOns[i].ID == uuid.Nil {
			sub.AddOns[i].ID = uuid.New()
		}
	}
}

// toSubscriptionResponse добавляет рассчитанную стоимость. Шифротекст заметки наружу не отдается.
func toSubscriptionResponse(sub models.Subscription, now time.Time) SubscriptionResponse {
	hidden := sub
	hidden.SensitiveNotes = ""
	return SubscriptionResponse{
		Subscription:     hidden,
		EffectiveMonthly: billing.Round2(billing.CurrentEffectiveMonthly(sub, now)),
		EffectiveYearly:  billing.Round2(billing.EffectiveYearly(sub)),
		FormattedCost:    billing.FormatEffectiveCost(sub, now),
		HasSensitiveNote: sub.SensitiveNotes != "",
	}
}

// readObject читает тело запроса и проверяет, что это JSON-объект.
func readObject(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, errValidation
	}

	return trimmed, nil
}
