package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/subtracker/backend/internal/calendar"
	"example.com/subtracker/backend/internal/models"
)

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

// NewSubscriptionRepository создает репозиторий подписок.
func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// List возвращает все подписки в порядке создания.
func (r *SubscriptionRepository) List(ctx context.Context) ([]models.Subscription, error) {
	return listSubscriptions(ctx, r.db,
		`SELECT id, data, created_at, updated_at
		 FROM subscriptions
		 ORDER BY created_at, id`,
	)
}

// ListOverdue возвращает не отмененные подписки с датой продления раньше before.
func (r *SubscriptionRepository) ListOverdue(ctx context.Context, before calendar.Date) ([]models.Subscription, error) {
	return listSubscriptions(ctx, r.db,
		`SELECT id, data, created_at, updated_at
		 FROM subscriptions
		 WHERE status <> $1 AND next_renewal_date < $2
		 ORDER BY next_renewal_date, id`,
		models.StatusCancelled, before,
	)
}

// GetByID возвращает подписку по идентификатору.
func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Subscription, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, data, created_at, updated_at
		 FROM subscriptions
		 WHERE id = $1`,
		id,
	)

	sub, err := scanSubscription(row)
	if err != nil {
		return sub, mapError(err)
	}
	return sub, nil
}

// Create сохраняет новую подписку. Пустой идентификатор заменяется новым.
func (r *SubscriptionRepository) Create(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if err := insertSubscription(ctx, r.db, &sub); err != nil {
		return sub, mapError(err)
	}
	return sub, nil
}

// Update блокирует строку, применяет patch и сохраняет результат.
func (r *SubscriptionRepository) Update(ctx context.Context, id uuid.UUID, patch func(*models.Subscription) error) (models.Subscription, error) {
	var sub models.Subscription

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT id, data, created_at, updated_at
			 FROM subscriptions
			 WHERE id = $1
			 FOR UPDATE`,
			id,
		)

		var err error
		sub, err = scanSubscription(row)
		if err != nil {
			return mapError(err)
		}

		if err := patch(&sub); err != nil {
			return err
		}
		sub.ID = id

		data, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("encode subscription: %w", err)
		}

		return tx.QueryRow(ctx,
			`UPDATE subscriptions
			 SET name = $2,
			     status = $3,
			     category_id = $4,
			     next_renewal_date = $5,
			     data = $6,
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING updated_at`,
			sub.ID, sub.Name, sub.Status, nullableUUID(sub.CategoryID), sub.NextRenewalDate, data,
		).Scan(&sub.UpdatedAt)
	})
	if err != nil {
		return sub, err
	}

	return sub, nil
}

// Delete удаляет подписку.
func (r *SubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Clear удаляет все подписки.
func (r *SubscriptionRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM subscriptions`)
	return err
}

func listSubscriptions(ctx context.Context, q querier, sql string, args ...any) ([]models.Subscription, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subs, nil
}

func insertSubscription(ctx context.Context, q querier, sub *models.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}

	return q.QueryRow(ctx,
		`INSERT INTO subscriptions (id, name, status, category_id, next_renewal_date, data)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		sub.ID, sub.Name, sub.Status, nullableUUID(sub.CategoryID), sub.NextRenewalDate, data,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
}

func scanSubscription(row pgx.Row) (models.Subscription, error) {
	var sub models.Subscription
	var id uuid.UUID
	var data []byte

	if err := row.Scan(&id, &data, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return sub, err
	}

	createdAt, updatedAt := sub.CreatedAt, sub.UpdatedAt
	if err := json.Unmarshal(data, &sub); err != nil {
		return sub, fmt.Errorf("decode subscription %s: %w", id, err)
	}
	sub.ID = id
	sub.CreatedAt = createdAt
	sub.UpdatedAt = updatedAt

	return sub, nil
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
