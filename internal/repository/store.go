package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/subtracker/backend/internal/models"
)

type Snapshot struct {
	Subscriptions []models.Subscription
	Members       []models.HouseholdMember
	Categories    []models.Category
	Settings      *models.AppSettings
}

type Store struct {
	db *pgxpool.Pool

	Subscriptions *SubscriptionRepository
	Members       *MemberRepository
	Categories    *CategoryRepository
	Settings      *SettingsRepository
}

// NewStore собирает все репозитории поверх одного пула.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db:            db,
		Subscriptions: NewSubscriptionRepository(db),
		Members:       NewMemberRepository(db),
		Categories:    NewCategoryRepository(db),
		Settings:      NewSettingsRepository(db),
	}
}

// ReplaceAll атомарно очищает коллекции и записывает снимок.
// Если в снимке нет настроек, сохраняются значения по умолчанию.
func (s *Store) ReplaceAll(ctx context.Context, snapshot Snapshot) error {
	return inTx(ctx, s.db, func(tx pgx.Tx) error {
		for _, table := range []string{"subscriptions", "household_members", "categories", "settings"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for i := range snapshot.Categories {
			if err := insertCategory(ctx, tx, &snapshot.Categories[i]); err != nil {
				return fmt.Errorf("insert category: %w", mapError(err))
			}
		}

		for i := range snapshot.Members {
			if err := insertMember(ctx, tx, &snapshot.Members[i]); err != nil {
				return fmt.Errorf("insert member: %w", mapError(err))
			}
		}

		for i := range snapshot.Subscriptions {
			if err := insertSubscription(ctx, tx, &snapshot.Subscriptions[i]); err != nil {
				return fmt.Errorf("insert subscription: %w", mapError(err))
			}
		}

		settings := models.DefaultSettings()
		if snapshot.Settings != nil {
			settings = *snapshot.Settings
		}
		return saveSettings(ctx, tx, settings)
	})
}

// Load читает все коллекции для экспорта.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var snapshot Snapshot
	var err error

	if snapshot.Subscriptions, err = s.Subscriptions.List(ctx); err != nil {
		return snapshot, fmt.Errorf("list subscriptions: %w", err)
	}
	if snapshot.Members, err = s.Members.List(ctx); err != nil {
		return snapshot, fmt.Errorf("list members: %w", err)
	}
	if snapshot.Categories, err = s.Categories.List(ctx); err != nil {
		return snapshot, fmt.Errorf("list categories: %w", err)
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return snapshot, fmt.Errorf("get settings: %w", err)
	}
	snapshot.Settings = &settings

	return snapshot, nil
}

// SeedDefaults добавляет стандартные категории в пустую базу и создает строку настроек.
func (s *Store) SeedDefaults(ctx context.Context) (bool, error) {
	seeded := false

	err := inTx(ctx, s.db, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
			return err
		}

		if count == 0 {
			for _, category := range DefaultCategories() {
				if err := insertCategory(ctx, tx, &category); err != nil {
					return fmt.Errorf("seed category %s: %w", category.Name, err)
				}
			}
			seeded = true
		}

		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM settings WHERE id = $1)`, models.SettingsID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return saveSettings(ctx, tx, models.DefaultSettings())
		}
		return nil
	})

	return seeded, err
}
