package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/subtracker/backend/internal/models"
)

type CategoryRepository struct {
	db *pgxpool.Pool
}

type defaultCategory struct {
	Name  string
	Icon  string
	Color string
}

var defaultCategories = []defaultCategory{
	{Name: "Streaming", Icon: "tv", Color: "#EF4444"},
	{Name: "Music", Icon: "music", Color: "#8B5CF6"},
	{Name: "Gaming", Icon: "gamepad-2", Color: "#22C55E"},
	{Name: "Cloud Storage", Icon: "cloud", Color: "#0EA5E9"},
	{Name: "Software", Icon: "code", Color: "#6366F1"},
	{Name: "News & Reading", Icon: "newspaper", Color: "#F59E0B"},
	{Name: "Fitness", Icon: "dumbbell", Color: "#F97316"},
	{Name: "Home & Utilities", Icon: "home", Color: "#14B8A6"},
	{Name: "Security", Icon: "shield", Color: "#64748B"},
	{Name: "Kids & Family", Icon: "baby", Color: "#EC4899"},
	{Name: "Work & Productivity", Icon: "briefcase", Color: "#3B82F6"},
	{Name: "Other", Icon: "package", Color: "#9CA3AF"},
}

// CategoryFallbackColor is used for categories saved without a color.
const CategoryFallbackColor = "#9CA3AF"

// NewCategoryRepository создает репозиторий категорий.
func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// DefaultCategories возвращает стандартный набор категорий с новыми идентификаторами.
func DefaultCategories() []models.Category {
	categories := make([]models.Category, 0, len(defaultCategories))
	for idx, category := range defaultCategories {
		categories = append(categories, models.Category{
			ID:        uuid.New(),
			Name:      category.Name,
			Icon:      category.Icon,
			Color:     category.Color,
			IsDefault: true,
			SortOrder: idx,
		})
	}
	return categories
}

// List возвращает категории по sort_order.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, icon, color, is_default, sort_order
		 FROM categories
		 ORDER BY sort_order, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

// GetByID возвращает категорию по идентификатору.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Category, error) {
	category, err := scanCategory(r.db.QueryRow(ctx,
		`SELECT id, name, icon, color, is_default, sort_order
		 FROM categories
		 WHERE id = $1`,
		id,
	))
	if err != nil {
		return category, mapError(err)
	}
	return category, nil
}

// Create добавляет категорию.
func (r *CategoryRepository) Create(ctx context.Context, category models.Category) (models.Category, error) {
	if err := insertCategory(ctx, r.db, &category); err != nil {
		return category, mapError(err)
	}
	return category, nil
}

// Update блокирует строку категории и применяет patch.
func (r *CategoryRepository) Update(ctx context.Context, id uuid.UUID, patch func(*models.Category) error) (models.Category, error) {
	var category models.Category

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		category, err = scanCategory(tx.QueryRow(ctx,
			`SELECT id, name, icon, color, is_default, sort_order
			 FROM categories
			 WHERE id = $1
			 FOR UPDATE`,
			id,
		))
		if err != nil {
			return mapError(err)
		}

		if err := patch(&category); err != nil {
			return err
		}
		category.ID = id

		_, err = tx.Exec(ctx,
			`UPDATE categories
			 SET name = $2, icon = $3, color = $4, is_default = $5, sort_order = $6
			 WHERE id = $1`,
			category.ID, category.Name, category.Icon, withFallbackColor(category.Color), category.IsDefault, category.SortOrder,
		)
		return err
	})
	if err != nil {
		return category, err
	}

	return category, nil
}

// Delete удаляет категорию. Подписки сохраняют ссылку и выводятся как Unknown.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Clear удаляет все категории.
func (r *CategoryRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM categories`)
	return err
}

// Count возвращает количество категорий.
func (r *CategoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count)
	return count, err
}

func insertCategory(ctx context.Context, q querier, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.Color = withFallbackColor(category.Color)

	_, err := q.Exec(ctx,
		`INSERT INTO categories (id, name, icon, color, is_default, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		category.ID, category.Name, category.Icon, category.Color, category.IsDefault, category.SortOrder,
	)
	return err
}

func scanCategory(row pgx.Row) (models.Category, error) {
	var category models.Category
	err := row.Scan(&category.ID, &category.Name, &category.Icon, &category.Color, &category.IsDefault, &category.SortOrder)
	return category, err
}

func withFallbackColor(color string) string {
	if color == "" {
		return CategoryFallbackColor
	}
	return color
}
