package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
)

type SettingsHandler struct {
	Settings SettingsStore
	Keyring  Keyring
	Notifier Publisher
}

// NewSettingsHandler создает обработчик настроек приложения.
func NewSettingsHandler(settings SettingsStore, keyring Keyring, notifier Publisher) *SettingsHandler {
	return &SettingsHandler{Settings: settings, Keyring: keyring, Notifier: notifier}
}

type SettingsResponse struct {
	models.AppSettings
	HasPin bool `json:"has_pin"`
}

// Get возвращает настройки приложения.
func (h *SettingsHandler) Get(c echo.Context) error {
	settings, err := h.Settings.Get(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, toSettingsResponse(settings))
}

// Update накладывает тело запроса на настройки. PIN меняется только через /pin.
func (h *SettingsHandler) Update(c echo.Context) error {
	body, err := readObject(c)
	if err != nil {
		return badRequest(c, "invalid payload")
	}

	updated, err := h.Settings.Update(c.Request().Context(), func(settings *models.AppSettings) error {
		pin := pinMaterial(*settings)
		if err := json.Unmarshal(body, settings); err != nil {
			return errValidation
		}
		settings.ID = models.SettingsID
		settings.PinVerifyHash, settings.PinVerifySalt, settings.PinEncryptSalt = pin[0], pin[1], pin[2]
		settings.DefaultCurrency = strings.ToUpper(strings.TrimSpace(settings.DefaultCurrency))
		if err := c.Validate(settings); err != nil {
			return errValidation
		}
		return nil
	})
	if err != nil {
		return storeError(c, err, "settings not found")
	}

	publish(h.Notifier, notifications.Settings)
	return c.JSON(http.StatusOK, toSettingsResponse(updated))
}

// Reset возвращает настройки по умолчанию и закрывает все PIN-сессии.
func (h *SettingsHandler) Reset(c echo.Context) error {
	settings, err := h.Settings.Reset(c.Request().Context())
	if err != nil {
		return serverError(c)
	}

	if h.Keyring != nil {
		h.Keyring.Clear()
	}

	publish(h.Notifier, notifications.Settings)
	return c.JSON(http.StatusOK, toSettingsResponse(settings))
}

func toSettingsResponse(settings models.AppSettings) SettingsResponse {
	response := SettingsResponse{AppSettings: settings, HasPin: settings.HasPin()}
	response.PinVerifyHash = ""
	response.PinVerifySalt = ""
	response.PinEncryptSalt = ""
	return response
}

func pinMaterial(settings models.AppSettings) [3]string {
	return [3]string{settings.PinVerifyHash, settings.PinVerifySalt, settings.PinEncryptSalt}
}
