package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/subtracker/backend/internal/models"
)

type SettingsRepository struct {
	db *pgxpool.Pool
}

// NewSettingsRepository создает репозиторий настроек приложения.
func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get возвращает сохраненные настройки или значения по умолчанию, если строки нет.
func (r *SettingsRepository) Get(ctx context.Context) (models.AppSettings, error) {
	settings, err := loadSettings(ctx, r.db, false)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultSettings(), nil
	}
	return settings, err
}

// Update применяет patch к настройкам, создавая строку при необходимости.
func (r *SettingsRepository) Update(ctx context.Context, patch func(*models.AppSettings) error) (models.AppSettings, error) {
	var settings models.AppSettings

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		settings, err = loadSettings(ctx, tx, true)
		if errors.Is(err, ErrNotFound) {
			settings, err = models.DefaultSettings(), nil
		}
		if err != nil {
			return err
		}

		if err := patch(&settings); err != nil {
			return err
		}

		return saveSettings(ctx, tx, settings)
	})
	if err != nil {
		return settings, err
	}

	return settings, nil
}

// Reset восстанавливает настройки по умолчанию, включая удаление PIN.
func (r *SettingsRepository) Reset(ctx context.Context) (models.AppSettings, error) {
	settings := models.DefaultSettings()
	if err := saveSettings(ctx, r.db, settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// Clear удаляет строку настроек.
func (r *SettingsRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM settings`)
	return err
}

func loadSettings(ctx context.Context, q querier, forUpdate bool) (models.AppSettings, error) {
	var settings models.AppSettings
	var data []byte

	query := `SELECT data FROM settings WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	if err := q.QueryRow(ctx, query, models.SettingsID).Scan(&data); err != nil {
		return settings, mapError(err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("decode settings: %w", err)
	}
	settings.ID = models.SettingsID

	return settings, nil
}

func saveSettings(ctx context.Context, q querier, settings models.AppSettings) error {
	settings.ID = models.SettingsID

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = q.Exec(ctx,
		`INSERT INTO settings (id, data)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		settings.ID, data,
	)
	return err
}
