package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/subtracker/backend/internal/models"
)

type MemberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository создает репозиторий участников семьи.
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db}
}

// List возвращает участников в порядке добавления.
func (r *MemberRepository) List(ctx context.Context) ([]models.HouseholdMember, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, role, avatar_color, avatar_url, created_at
		 FROM household_members
		 ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.HouseholdMember, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

// GetByID возвращает участника по идентификатору.
func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (models.HouseholdMember, error) {
	member, err := scanMember(r.db.QueryRow(ctx,
		`SELECT id, name, role, avatar_color, avatar_url, created_at
		 FROM household_members
		 WHERE id = $1`,
		id,
	))
	if err != nil {
		return member, mapError(err)
	}
	return member, nil
}

// Create добавляет участника.
func (r *MemberRepository) Create(ctx context.Context, member models.HouseholdMember) (models.HouseholdMember, error) {
	if err := insertMember(ctx, r.db, &member); err != nil {
		return member, mapError(err)
	}
	return member, nil
}

// Update блокирует строку участника и применяет patch.
func (r *MemberRepository) Update(ctx context.Context, id uuid.UUID, patch func(*models.HouseholdMember) error) (models.HouseholdMember, error) {
	var member models.HouseholdMember

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		member, err = scanMember(tx.QueryRow(ctx,
			`SELECT id, name, role, avatar_color, avatar_url, created_at
			 FROM household_members
			 WHERE id = $1
			 FOR UPDATE`,
			id,
		))
		if err != nil {
			return mapError(err)
		}

		if err := patch(&member); err != nil {
			return err
		}
		member.ID = id

		_, err = tx.Exec(ctx,
			`UPDATE household_members
			 SET name = $2, role = $3, avatar_color = $4, avatar_url = $5
			 WHERE id = $1`,
			member.ID, member.Name, member.Role, member.AvatarColor, member.AvatarURL,
		)
		return err
	})
	if err != nil {
		return member, err
	}

	return member, nil
}

// Delete удаляет участника.
func (r *MemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM household_members WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Clear удаляет всех участников.
func (r *MemberRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM household_members`)
	return err
}

func insertMember(ctx context.Context, q querier, member *models.HouseholdMember) error {
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}

	if member.CreatedAt.IsZero() {
		return q.QueryRow(ctx,
			`INSERT INTO household_members (id, name, role, avatar_color, avatar_url)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING created_at`,
			member.ID, member.Name, member.Role, member.AvatarColor, member.AvatarURL,
		).Scan(&member.CreatedAt)
	}

	_, err := q.Exec(ctx,
		`INSERT INTO household_members (id, name, role, avatar_color, avatar_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		member.ID, member.Name, member.Role, member.AvatarColor, member.AvatarURL, member.CreatedAt,
	)
	return err
}

func scanMember(row pgx.Row) (models.HouseholdMember, error) {
	var member models.HouseholdMember
	err := row.Scan(&member.ID, &member.Name, &member.Role, &member.AvatarColor, &member.AvatarURL, &member.CreatedAt)
	return member, err
}
