package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/auth"
	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
)

type SessionIssuer interface {
	NewSession() (auth.Session, error)
	TTL() time.Duration
}

type PinHandler struct {
	Settings      SettingsStore
	Subscriptions SubscriptionStore
	Sessions      SessionIssuer
	Keyring       Keyring
	Notifier      Publisher
	Logger        *slog.Logger
}

// NewPinHandler создает обработчик PIN для защищенных заметок.
func NewPinHandler(settings SettingsStore, subs SubscriptionStore, sessions SessionIssuer, keyring Keyring, notifier Publisher, logger *slog.Logger) *PinHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PinHandler{
		Settings:      settings,
		Subscriptions: subs,
		Sessions:      sessions,
		Keyring:       keyring,
		Notifier:      notifier,
		Logger:        logger,
	}
}

type SetPinRequest struct {
	Pin        string `json:"pin" validate:"required,min=4,max=32,numeric"`
	CurrentPin string `json:"current_pin"`
}

type PinRequest struct {
	Pin string `json:"pin" validate:"required"`
}

type UnlockResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Set задает PIN. Смена PIN требует текущий PIN и перешифровывает существующие заметки.
func (h *PinHandler) Set(c echo.Context) error {
	var req SetPinRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "PIN must be at least 4 digits")
	}

	ctx := c.Request().Context()
	settings, err := h.Settings.Get(ctx)
	if err != nil {
		return serverError(c)
	}

	var oldKey []byte
	if settings.HasPin() {
		if !auth.VerifyPin(req.CurrentPin, settings.PinVerifyHash, settings.PinVerifySalt) {
			return unauthorized(c, "incorrect PIN")
		}
		if oldKey, err = auth.DeriveKey(req.CurrentPin, settings.PinEncryptSalt); err != nil {
			return serverError(c)
		}
	}

	verification, err := auth.CreatePinVerification(req.Pin)
	if err != nil {
		return serverError(c)
	}

	if oldKey != nil {
		newKey, err := auth.DeriveKey(req.Pin, verification.EncryptSalt)
		if err != nil {
			return serverError(c)
		}
		if err := h.reencryptNotes(ctx, oldKey, newKey); err != nil {
			h.Logger.Error("failed to re-encrypt notes", "error", err)
			return serverError(c)
		}
	}

	updated, err := h.Settings.Update(ctx, func(s *models.AppSettings) error {
		s.PinVerifyHash = verification.VerifyHash
		s.PinVerifySalt = verification.VerifySalt
		s.PinEncryptSalt = verification.EncryptSalt
		return nil
	})
	if err != nil {
		return serverError(c)
	}

	if h.Keyring != nil {
		h.Keyring.Clear()
	}
	publish(h.Notifier, notifications.Settings)
	return c.JSON(http.StatusOK, toSettingsResponse(updated))
}

// Remove снимает PIN после проверки. Зашифрованные заметки остаются нечитаемыми до восстановления копии.
func (h *PinHandler) Remove(c echo.Context) error {
	var req PinRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}

	ctx := c.Request().Context()
	settings, err := h.Settings.Get(ctx)
	if err != nil {
		return serverError(c)
	}
	if !settings.HasPin() {
		return conflict(c, "PIN is not set")
	}
	if !auth.VerifyPin(req.Pin, settings.PinVerifyHash, settings.PinVerifySalt) {
		return unauthorized(c, "incorrect PIN")
	}

	updated, err := h.Settings.Update(ctx, func(s *models.AppSettings) error {
		s.PinVerifyHash = ""
		s.PinVerifySalt = ""
		s.PinEncryptSalt = ""
		return nil
	})
	if err != nil {
		return serverError(c)
	}

	if h.Keyring != nil {
		h.Keyring.Clear()
	}
	publish(h.Notifier, notifications.Settings)
	return c.JSON(http.StatusOK, toSettingsResponse(updated))
}

// Unlock проверяет PIN и открывает сессию с ключом заметок.
func (h *PinHandler) Unlock(c echo.Context) error {
	var req PinRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "pin is required")
	}

	settings, err := h.Settings.Get(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	if !settings.HasPin() {
		return conflict(c, "PIN is not set")
	}
	if !auth.VerifyPin(req.Pin, settings.PinVerifyHash, settings.PinVerifySalt) {
		return unauthorized(c, "incorrect PIN")
	}

	key, err := auth.DeriveKey(req.Pin, settings.PinEncryptSalt)
	if err != nil {
		return serverError(c)
	}

	session, err := h.Sessions.NewSession()
	if err != nil {
		return serverError(c)
	}
	h.Keyring.Put(session.ID, key, h.Sessions.TTL())

	return c.JSON(http.StatusOK, UnlockResponse{Token: session.Token, ExpiresAt: session.ExpiresAt})
}

// Lock закрывает текущую PIN-сессию.
func (h *PinHandler) Lock(c echo.Context) error {
	sessionID, _, ok := auth.SessionFromContext(c)
	if !ok {
		return unauthorized(c, "pin session is locked")
	}

	h.Keyring.Delete(sessionID)
	return c.NoContent(http.StatusNoContent)
}

func (h *PinHandler) reencryptNotes(ctx context.Context, oldKey, newKey []byte) error {
	subs, err := h.Subscriptions.List(ctx)
	if err != nil {
		return err
	}

	changed := false
	for _, sub := range subs {
		if sub.SensitiveNotes == "" {
			continue
		}
		_, err := h.Subscriptions.Update(ctx, sub.ID, func(current *models.Subscription) error {
			plaintext, ok := auth.DecryptNote(current.SensitiveNotes, oldKey)
			if !ok {
				return nil
			}
			encrypted, err := auth.EncryptNote(plaintext, newKey)
			if err != nil {
				return err
			}
			current.SensitiveNotes = encrypted
			return nil
		})
		if err != nil {
			return fmt.Errorf("subscription %s: %w", sub.ID, err)
		}
		changed = true
	}

	if changed {
		publish(h.Notifier, notifications.Subscriptions)
	}
	return nil
}
