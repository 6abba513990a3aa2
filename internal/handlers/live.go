package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/billing"
	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
)

type Watcher interface {
	Watch(ctx context.Context, collections []notifications.Collection, fn func(ctx context.Context) error) error
}

type LiveHandler struct {
	Hub   Watcher
	Views *ViewHandler
}

// NewLiveHandler создает SSE-обработчик живых данных.
func NewLiveHandler(hub Watcher, views *ViewHandler) *LiveHandler {
	return &LiveHandler{Hub: hub, Views: views}
}

type LiveSnapshot struct {
	TotalMonthly float64        `json:"total_monthly"`
	TotalYearly  float64        `json:"total_yearly"`
	ActiveCount  int            `json:"active_count"`
	Alerts       []models.Alert `json:"alerts"`
}

// Stream открывает SSE-поток: снимок итогов и уведомлений пересчитывается после каждого изменения.
func (h *LiveHandler) Stream(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return serverError(c)
	}

	_ = writeSSE(c, notifications.Event{Type: "connected"})
	flusher.Flush()

	err := h.Hub.Watch(c.Request().Context(), notifications.AllCollections, func(ctx context.Context) error {
		snapshot, err := h.snapshot(ctx)
		if err != nil {
			return err
		}
		if err := writeSSE(c, notifications.Event{Type: "snapshot", Timestamp: h.Views.Now().UTC(), Data: snapshot}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil && c.Request().Context().Err() == nil {
		_ = writeSSE(c, notifications.Event{Type: "error", Data: map[string]string{"error": "stream interrupted"}})
		flusher.Flush()
	}
	return nil
}

func (h *LiveHandler) snapshot(ctx context.Context) (LiveSnapshot, error) {
	subs, err := h.Views.Subscriptions.List(ctx)
	if err != nil {
		return LiveSnapshot{}, err
	}
	settings, err := h.Views.Settings.Get(ctx)
	if err != nil {
		return LiveSnapshot{}, err
	}

	now := h.Views.Now()
	return LiveSnapshot{
		TotalMonthly: billing.TotalMonthly(subs, now),
		TotalYearly:  billing.TotalYearly(subs, now),
		ActiveCount:  len(billing.Billable(subs)),
		Alerts:       h.Views.visibleAlerts(subs, settings, calendar.Today(now)),
	}, nil
}

func writeSSE(c echo.Context, event notifications.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := c.Response().Write([]byte("event: " + event.Type + "\n")); err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}

	return nil
}
