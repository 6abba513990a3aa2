package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/alerts"
	"example.com/subtracker/backend/internal/billing"
	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/config"
	"example.com/subtracker/backend/internal/insights"
	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
	"example.com/subtracker/backend/internal/renewal"
)

const (
	dashboardWindowDays = 7
	dashboardUpcoming   = 7
	trialEndingDays     = 7
	maxCashflowDays     = 366
)

type ViewHandler struct {
	Subscriptions SubscriptionStore
	Categories    CategoryStore
	Settings      SettingsStore
	Dismissed     *alerts.DismissedSet
	Notifier      Publisher
	Defaults      config.AlertsConfig
	Now           Clock
}

// NewViewHandler создает обработчик дашборда, календаря платежей, уведомлений и аналитики.
func NewViewHandler(subs SubscriptionStore, categories CategoryStore, settings SettingsStore, dismissed *alerts.DismissedSet, notifier Publisher, defaults config.AlertsConfig, now Clock) *ViewHandler {
	if dismissed == nil {
		dismissed = alerts.NewDismissedSet()
	}
	return &ViewHandler{
		Subscriptions: subs,
		Categories:    categories,
		Settings:      settings,
		Dismissed:     dismissed,
		Notifier:      notifier,
		Defaults:      defaults,
		Now:           now.orDefault(),
	}
}

type DashboardResponse struct {
	Currency         string                     `json:"currency"`
	TotalMonthly     float64                    `json:"total_monthly"`
	TotalYearly      float64                    `json:"total_yearly"`
	FormattedMonthly string                     `json:"formatted_monthly"`
	FormattedYearly  string                     `json:"formatted_yearly"`
	ActiveCount      int                        `json:"active_count"`
	TrialsEnding     int                        `json:"trials_ending_soon"`
	UpcomingCount    int                        `json:"upcoming_this_week"`
	CategoryCount    int                        `json:"category_count"`
	Breakdown        []models.CategoryBreakdown `json:"breakdown"`
	Upcoming         []models.CashflowEntry     `json:"upcoming"`
	Alerts           []models.Alert             `json:"alerts"`
}

type CashflowResponse struct {
	Start   calendar.Date          `json:"start"`
	End     calendar.Date          `json:"end"`
	Entries []models.CashflowEntry `json:"entries"`
	Total   float64                `json:"total"`
	Daily   []renewal.DayTotal     `json:"daily"`
}

// Dashboard возвращает итоги, разбивку по категориям и ближайшие продления.
func (h *ViewHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	subs, err := h.Subscriptions.List(ctx)
	if err != nil {
		return serverError(c)
	}
	categories, err := h.Categories.List(ctx)
	if err != nil {
		return serverError(c)
	}
	settings, err := h.Settings.Get(ctx)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, h.buildDashboard(subs, categories, settings, h.Now()))
}

func (h *ViewHandler) buildDashboard(subs []models.Subscription, categories []models.Category, settings models.AppSettings, now time.Time) DashboardResponse {
	today := calendar.Today(now)
	start, end := renewal.Window(today, dashboardWindowDays)
	entries := renewal.CashflowEntries(subs, start, end)

	upcoming := entries
	if len(upcoming) > dashboardUpcoming {
		upcoming = upcoming[:dashboardUpcoming]
	}

	response := DashboardResponse{
		Currency:      settings.DefaultCurrency,
		TotalMonthly:  billing.TotalMonthly(subs, now),
		TotalYearly:   billing.TotalYearly(subs, now),
		UpcomingCount: len(entries),
		Breakdown:     billing.CategoryBreakdown(subs, categories, now),
		Upcoming:      upcoming,
		Alerts:        h.visibleAlerts(subs, settings, today),
	}
	response.FormattedMonthly = billing.FormatCurrency(response.TotalMonthly, settings.DefaultCurrency)
	response.FormattedYearly = billing.FormatCurrency(response.TotalYearly, settings.DefaultCurrency)

	used := make(map[uuid.UUID]struct{})
	for _, sub := range subs {
		used[sub.CategoryID] = struct{}{}
		if !sub.IsBillable() {
			continue
		}
		response.ActiveCount++
		if days := today.DaysUntil(sub.NextRenewalDate); sub.Status == models.StatusTrial && days >= 0 && days <= trialEndingDays {
			response.TrialsEnding++
		}
	}
	response.CategoryCount = len(used)

	return response
}

// Cashflow возвращает платежи в окне ?days=N от сегодня или в отрезке ?start=&end=.
func (h *ViewHandler) Cashflow(c echo.Context) error {
	start, end, err := h.cashflowWindow(c.QueryParam("days"), c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	subs, err := h.Subscriptions.List(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	entries := renewal.CashflowEntries(subs, start, end)
	return c.JSON(http.StatusOK, CashflowResponse{
		Start:   start,
		End:     end,
		Entries: entries,
		Total:   renewal.MonthTotal(entries),
		Daily:   renewal.DailyTotals(entries),
	})
}

func (h *ViewHandler) cashflowWindow(daysParam, startParam, endParam string) (calendar.Date, calendar.Date, error) {
	today := calendar.Today(h.Now())

	if startParam != "" || endParam != "" {
		start, err := calendar.Parse(startParam)
		if err != nil {
			return calendar.Date{}, calendar.Date{}, errInvalidQuery("start must be a YYYY-MM-DD date")
		}
		end, err := calendar.Parse(endParam)
		if err != nil {
			return calendar.Date{}, calendar.Date{}, errInvalidQuery("end must be a YYYY-MM-DD date")
		}
		if end.Before(start) {
			return calendar.Date{}, calendar.Date{}, errInvalidQuery("end must not be before start")
		}
		if start.DaysUntil(end) > maxCashflowDays {
			return calendar.Date{}, calendar.Date{}, errInvalidQuery("range is too long")
		}
		return start, end, nil
	}

	days := h.Defaults.CashflowDays
	if days <= 0 {
		days = renewal.DefaultWindowDays
	}
	if daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed <= 0 || parsed > maxCashflowDays {
			return calendar.Date{}, calendar.Date{}, errInvalidQuery("days must be between 1 and 366")
		}
		days = parsed
	}

	start, end := renewal.Window(today, days)
	return start, end, nil
}

// Alerts возвращает актуальные уведомления без скрытых пользователем.
func (h *ViewHandler) Alerts(c echo.Context) error {
	list, err := h.CurrentAlerts(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, list)
}

// DismissAlert скрывает уведомление до следующего продления.
func (h *ViewHandler) DismissAlert(c echo.Context) error {
	key, err := alerts.ParseKey(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid alert id")
	}

	h.Dismissed.Dismiss(key)
	publish(h.Notifier, notifications.Dismissals)
	return c.NoContent(http.StatusNoContent)
}

// Insights возвращает отчет об экономии.
func (h *ViewHandler) Insights(c echo.Context) error {
	ctx := c.Request().Context()
	subs, err := h.Subscriptions.List(ctx)
	if err != nil {
		return serverError(c)
	}
	categories, err := h.Categories.List(ctx)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, insights.BuildReport(subs, categories, h.Now()))
}

// CurrentAlerts пересчитывает уведомления на текущий день.
func (h *ViewHandler) CurrentAlerts(ctx context.Context) ([]models.Alert, error) {
	subs, err := h.Subscriptions.List(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := h.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return h.visibleAlerts(subs, settings, calendar.Today(h.Now())), nil
}

func (h *ViewHandler) visibleAlerts(subs []models.Subscription, settings models.AppSettings, today calendar.Date) []models.Alert {
	return h.Dismissed.Filter(alerts.Generate(subs, today, h.threshold(settings)))
}

func (h *ViewHandler) threshold(settings models.AppSettings) float64 {
	if settings.EscalationThreshold > 0 {
		return settings.EscalationThreshold
	}
	if h.Defaults.EscalationThreshold > 0 {
		return h.Defaults.EscalationThreshold
	}
	return alerts.DefaultEscalationThreshold
}

type errInvalidQuery string

func (e errInvalidQuery) Error() string {
	return string(e)
}
