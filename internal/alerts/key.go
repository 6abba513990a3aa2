package alerts

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

var ErrInvalidKey = errors.New("invalid alert id")

type Key struct {
	SubscriptionID uuid.UUID
	RenewalDate    string
	DaysBefore     int
}

// KeyFor строит ключ оповещения для подписки и срока.
func KeyFor(sub models.Subscription, daysBefore int) Key {
	return Key{
		SubscriptionID: sub.ID,
		RenewalDate:    sub.NextRenewalDate.String(),
		DaysBefore:     daysBefore,
	}
}

func (k Key) String() string {
	return k.SubscriptionID.String() + "-" + k.RenewalDate + "-" + strconv.Itoa(k.DaysBefore)
}

// ParseKey разбирает строковый идентификатор вида <uuid>-<YYYY-MM-DD>-<days>.
func ParseKey(value string) (Key, error) {
	const idLen = 36

	value = strings.TrimSpace(value)
	if len(value) < idLen+1+len(calendar.Layout)+2 || value[idLen] != '-' {
		return Key{}, ErrInvalidKey
	}

	id, err := uuid.Parse(value[:idLen])
	if err != nil {
		return Key{}, ErrInvalidKey
	}

	rest := value[idLen+1:]
	renewal := rest[:len(calendar.Layout)]
	if _, err := calendar.Parse(renewal); err != nil {
		return Key{}, ErrInvalidKey
	}

	tail := rest[len(calendar.Layout):]
	if !strings.HasPrefix(tail, "-") {
		return Key{}, ErrInvalidKey
	}

	days, err := strconv.Atoi(tail[1:])
	if err != nil || days < 0 {
		return Key{}, ErrInvalidKey
	}

	return Key{SubscriptionID: id, RenewalDate: renewal, DaysBefore: days}, nil
}
