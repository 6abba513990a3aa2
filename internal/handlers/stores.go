package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/repository"
)

type SubscriptionStore interface {
	List(ctx context.Context) ([]models.Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Subscription, error)
	Create(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	Update(ctx context.Context, id uuid.UUID, patch func(*models.Subscription) error) (models.Subscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MemberStore interface {
	List(ctx context.Context) ([]models.HouseholdMember, error)
	Create(ctx context.Context, member models.HouseholdMember) (models.HouseholdMember, error)
	Update(ctx context.Context, id uuid.UUID, patch func(*models.HouseholdMember) error) (models.HouseholdMember, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, category models.Category) (models.Category, error)
	Update(ctx context.Context, id uuid.UUID, patch func(*models.Category) error) (models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SettingsStore interface {
	Get(ctx context.Context) (models.AppSettings, error)
	Update(ctx context.Context, patch func(*models.AppSettings) error) (models.AppSettings, error)
	Reset(ctx context.Context) (models.AppSettings, error)
}

type SnapshotStore interface {
	Load(ctx context.Context) (repository.Snapshot, error)
	ReplaceAll(ctx context.Context, snapshot repository.Snapshot) error
}

type Keyring interface {
	Put(sessionID uuid.UUID, key []byte, ttl time.Duration)
	Delete(sessionID uuid.UUID)
	Clear()
}
