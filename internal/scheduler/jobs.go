package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
	"example.com/subtracker/backend/internal/renewal"
)

const jobTimeout = 2 * time.Minute

type SubscriptionStore interface {
	ListOverdue(ctx context.Context, before calendar.Date) ([]models.Subscription, error)
	Update(ctx context.Context, id uuid.UUID, patch func(*models.Subscription) error) (models.Subscription, error)
}

type SessionSweeper interface {
	Sweep() int
}

type Publisher interface {
	Changed(collections ...notifications.Collection)
}

type Jobs struct {
	subs     SubscriptionStore
	sessions SessionSweeper
	notifier Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewJobs создает набор фоновых задач.
func NewJobs(subs SubscriptionStore, sessions SessionSweeper, notifier Publisher, logger *slog.Logger, now func() time.Time) *Jobs {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Jobs{
		subs:     subs,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		now:      now,
	}
}

// RollOverRenewals переносит просроченные даты продления в будущее.
func (j *Jobs) RollOverRenewals() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	j.logger.Info("starting renewal rollover job")
	updated, err := j.rollOver(ctx, calendar.Today(j.now()))
	if err != nil {
		j.logger.Error("renewal rollover job failed", "error", err, "updated", updated)
	}
	if updated > 0 && j.notifier != nil {
		j.notifier.Changed(notifications.Subscriptions)
	}
	j.logger.Info("renewal rollover job finished", "updated", updated)
}

func (j *Jobs) rollOver(ctx context.Context, today calendar.Date) (int, error) {
	overdue, err := j.subs.ListOverdue(ctx, today)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, sub := range overdue {
		_, err := j.subs.Update(ctx, sub.ID, func(current *models.Subscription) error {
			if current.Status == models.StatusCancelled || !current.NextRenewalDate.Before(today) {
				return nil
			}
			current.NextRenewalDate = renewal.AdvanceToFuture(
				current.NextRenewalDate,
				current.BillingCycle,
				current.CustomCycleDays,
				current.RenewalDayRule,
				today,
			)
			return nil
		})
		if err != nil {
			j.logger.Warn("failed to roll over renewal", "subscription_id", sub.ID.String(), "error", err)
			continue
		}
		updated++
	}

	return updated, nil
}

// SweepSessions удаляет истекшие ключи разблокировки.
func (j *Jobs) SweepSessions() {
	if j.sessions == nil {
		return
	}
	if removed := j.sessions.Sweep(); removed > 0 {
		j.logger.Info("expired pin sessions removed", "count", removed)
	}
}
