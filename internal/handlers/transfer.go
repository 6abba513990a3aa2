package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/alerts"
	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
	"example.com/subtracker/backend/internal/repository"
	"example.com/subtracker/backend/internal/transfer"
)

const csvUploadField = "file"

type TransferHandler struct {
	Store         SnapshotStore
	Subscriptions SubscriptionStore
	Settings      SettingsStore
	Decoder       *transfer.Decoder
	Keyring       Keyring
	Dismissed     *alerts.DismissedSet
	Notifier      Publisher
	Logger        *slog.Logger
	Now           Clock
}

// NewTransferHandler создает обработчик экспорта, импорта и полного сброса данных.
func NewTransferHandler(store SnapshotStore, subs SubscriptionStore, settings SettingsStore, decoder *transfer.Decoder, keyring Keyring, dismissed *alerts.DismissedSet, notifier Publisher, logger *slog.Logger, now Clock) *TransferHandler {
	if decoder == nil {
		decoder = transfer.NewDecoder(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferHandler{
		Store:         store,
		Subscriptions: subs,
		Settings:      settings,
		Decoder:       decoder,
		Keyring:       keyring,
		Dismissed:     dismissed,
		Notifier:      notifier,
		Logger:        logger,
		Now:           now.orDefault(),
	}
}

// ExportJSON выгружает все коллекции в JSON-файл и запоминает дату резервной копии.
func (h *TransferHandler) ExportJSON(c echo.Context) error {
	ctx := c.Request().Context()
	now := h.Now()

	snapshot, err := h.Store.Load(ctx)
	if err != nil {
		h.Logger.Error("export failed", "error", err)
		return serverError(c)
	}

	today := calendar.Today(now)
	settings, err := h.Settings.Update(ctx, func(settings *models.AppSettings) error {
		settings.LastBackupDate = &today
		return nil
	})
	if err != nil {
		h.Logger.Warn("failed to record backup date", "error", err)
	} else {
		snapshot.Settings = &settings
		publish(h.Notifier, notifications.Settings)
	}

	var buf bytes.Buffer
	export := transfer.NewExport(snapshot.Subscriptions, snapshot.Members, snapshot.Categories, snapshot.Settings, now)
	if err := transfer.EncodeJSON(&buf, export); err != nil {
		return serverError(c)
	}

	setAttachment(c, fmt.Sprintf("subscriptions-backup-%s.json", today))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, buf.Bytes())
}

// ExportCSV выгружает подписки в CSV.
func (h *TransferHandler) ExportCSV(c echo.Context) error {
	subs, err := h.Subscriptions.List(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	var buf bytes.Buffer
	if err := transfer.WriteCSV(&buf, subs); err != nil {
		return serverError(c)
	}

	setAttachment(c, fmt.Sprintf("subscriptions-%s.csv", calendar.Today(h.Now())))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ImportJSON заменяет все данные содержимым резервной копии.
func (h *TransferHandler) ImportJSON(c echo.Context) error {
	body, err := uploadedBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, transfer.Failed("Invalid file"))
	}
	defer body.Close()

	data, err := h.Decoder.DecodeJSON(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, transfer.Failed(importMessage(err)))
	}

	snapshot := repository.Snapshot{
		Subscriptions: data.Subscriptions,
		Members:       data.HouseholdMembers,
		Categories:    data.Categories,
		Settings:      data.Settings,
	}
	if err := h.Store.ReplaceAll(c.Request().Context(), snapshot); err != nil {
		h.Logger.Error("json import failed", "error", err)
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, transfer.Failed("Duplicate identifiers in import"))
		}
		return c.JSON(http.StatusInternalServerError, transfer.Failed("Import failed"))
	}

	h.afterReplace()
	return c.JSON(http.StatusOK, data.Imported())
}

// ImportCSV добавляет подписки из CSV. Ошибочные строки пропускаются с сообщением.
func (h *TransferHandler) ImportCSV(c echo.Context) error {
	body, err := uploadedBody(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, transfer.Failed("Invalid file"))
	}
	defer body.Close()

	subs, messages, err := h.Decoder.ReadCSV(body, h.Now())
	if err != nil {
		return c.JSON(http.StatusBadRequest, transfer.Failed(err.Error()))
	}

	ctx := c.Request().Context()
	result := transfer.ImportResult{Success: true, Errors: messages}
	for _, sub := range subs {
		if _, err := h.Subscriptions.Create(ctx, sub); err != nil {
			h.Logger.Warn("csv row not stored", "name", sub.Name, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: could not be saved", sub.Name))
			continue
		}
		result.SubscriptionsImported++
	}

	if result.SubscriptionsImported > 0 {
		publish(h.Notifier, notifications.Subscriptions)
	}
	return c.JSON(http.StatusOK, result)
}

// ResetAll удаляет все данные и восстанавливает стандартные категории и настройки.
func (h *TransferHandler) ResetAll(c echo.Context) error {
	snapshot := repository.Snapshot{Categories: repository.DefaultCategories()}
	if err := h.Store.ReplaceAll(c.Request().Context(), snapshot); err != nil {
		h.Logger.Error("reset failed", "error", err)
		return serverError(c)
	}

	h.afterReplace()
	return c.NoContent(http.StatusNoContent)
}

// afterReplace сбрасывает состояние, привязанное к прежним данным.
func (h *TransferHandler) afterReplace() {
	if h.Keyring != nil {
		h.Keyring.Clear()
	}
	if h.Dismissed != nil {
		h.Dismissed.Reset()
	}
	publish(h.Notifier, notifications.AllCollections...)
}

// uploadedBody возвращает файл из multipart-поля file или само тело запроса.
func uploadedBody(c echo.Context) (io.ReadCloser, error) {
	if file, err := c.FormFile(csvUploadField); err == nil {
		return file.Open()
	}
	if c.Request().Body == nil {
		return nil, errors.New("empty body")
	}
	return c.Request().Body, nil
}

func importMessage(err error) string {
	if errors.Is(err, transfer.ErrInvalidJSON) {
		return "Invalid JSON file"
	}
	return err.Error()
}

func setAttachment(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
}
