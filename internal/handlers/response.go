package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
	"example.com/subtracker/backend/internal/repository"
)

type Publisher interface {
	Changed(collections ...notifications.Collection)
}

type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// errValidation marks a patch rejected by struct validation inside a repository transaction.
var errValidation = errors.New("validation failed")

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": message})
}

func conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, map[string]string{"error": message})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": message})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// storeError переводит ошибки репозитория в HTTP-ответ.
func storeError(c echo.Context, err error, missing string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, missing)
	case errors.Is(err, repository.ErrConflict):
		return conflict(c, "record already exists")
	case errors.Is(err, models.ErrMissingRenewalDate), errors.Is(err, models.ErrPriceHistoryOrder):
		return badRequest(c, err.Error())
	case errors.Is(err, errValidation), errors.Is(err, repository.ErrInvalid):
		return badRequest(c, "validation failed")
	default:
		return serverError(c)
	}
}

func parseID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalDate(value string) (calendar.Date, bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return calendar.Date{}, false, nil
	}
	date, err := calendar.Parse(trimmed)
	if err != nil {
		return calendar.Date{}, false, err
	}
	return date, true, nil
}

func validateHexColor(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", errors.New("color is required")
	}
	if !isHexColor(trimmed) {
		return "", errors.New("color must be a hex color")
	}

	return trimmed, nil
}

func isHexColor(value string) bool {
	if len(value) != 7 || value[0] != '#' {
		return false
	}

	for i := 1; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}

	return true
}

func publish(p Publisher, collections ...notifications.Collection) {
	if p == nil {
		return
	}
	p.Changed(collections...)
}
