package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TestDefaultCategories проверяет стандартный набор категорий.
func TestDefaultCategories(t *testing.T) {
	categories := DefaultCategories()
	if len(categories) != 12 {
		t.Fatalf("expected 12 categories, got %d", len(categories))
	}

	seen := make(map[uuid.UUID]struct{})
	for idx, category := range categories {
		if !category.IsDefault || category.SortOrder != idx {
			t.Fatalf("unexpected category %+v", category)
		}
		if _, dup := seen[category.ID]; dup {
			t.Fatal("category ids must be unique")
		}
		seen[category.ID] = struct{}{}
	}

	if last := categories[len(categories)-1]; last.Name != "Other" || last.Icon != "package" {
		t.Fatalf("expected Other last, got %+v", last)
	}
}

// TestMapError проверяет перевод ошибок pgx в доменные.
func TestMapError(t *testing.T) {
	if err := mapError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := mapError(fmt.Errorf("wrap: %w", pgx.ErrNoRows)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mapError(&pgconn.PgError{Code: "23505"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	other := errors.New("boom")
	if err := mapError(other); err != other {
		t.Fatalf("expected passthrough, got %v", err)
	}
}

// TestNullableUUID проверяет хранение пустой категории как NULL.
func TestNullableUUID(t *testing.T) {
	if nullableUUID(uuid.Nil) != nil {
		t.Fatal("expected nil for empty id")
	}
	id := uuid.New()
	if got := nullableUUID(id); got == nil || *got != id {
		t.Fatalf("unexpected value %v", got)
	}
}

// TestWithFallbackColor проверяет цвет по умолчанию.
func TestWithFallbackColor(t *testing.T) {
	if got := withFallbackColor(""); got != CategoryFallbackColor {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := withFallbackColor("#fff"); got != "#fff" {
		t.Fatalf("expected input color, got %s", got)
	}
}
