package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rpgsocial/platform/internal/domain"
)

type userRepo struct{}

// NewUserRepository returns a pgx-backed UserRepository.
func NewUserRepository() UserRepository {
	return &userRepo{}
}

const userColumns = `id, username, xp, level, quests_completed, created_at, updated_at`

func (r *userRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	row := db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) Create(ctx context.Context, db DBTX, user *domain.User) error {
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, username, xp, level, quests_completed, created_at, updated_at)
		VALUES ($1, $2, 0, 1, 0, now(), now())`,
		user.ID, user.Username)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	user.XP = 0
	user.Level = 1
	user.QuestsCompleted = 0
	return nil
}

// AddXP uses server-side arithmetic so concurrent awards never lose an
// update; the returned level is the stored (pre-award) one.
func (r *userRepo) AddXP(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int64) (*domain.User, error) {
	row := tx.QueryRow(ctx, `
		UPDATE users SET xp = xp + $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, amount, id)
	return scanUser(row)
}

func (r *userRepo) SetLevel(ctx context.Context, tx pgx.Tx, id uuid.UUID, level int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE users SET level = $1, updated_at = now() WHERE id = $2`, level, id)
	if err != nil {
		return fmt.Errorf("set level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set level: user %s vanished mid-transaction", id)
	}
	return nil
}

func (r *userRepo) IncrementQuestsCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET quests_completed = quests_completed + 1, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment quests_completed: %w", err)
	}
	return nil
}

// AddBadge relies on the (user_id, badge_id) primary key for set semantics.
func (r *userRepo) AddBadge(ctx context.Context, db DBTX, userID uuid.UUID, badge domain.Badge) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO user_badges (user_id, badge_id, name, icon, description, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, badge_id) DO NOTHING`,
		userID, badge.ID, badge.Name, badge.Icon, badge.Description, badge.UnlockedAt)
	if err != nil {
		return false, fmt.Errorf("insert badge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *userRepo) ListBadges(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Badge, error) {
	rows, err := db.Query(ctx, `
		SELECT badge_id, name, icon, description, unlocked_at
		FROM user_badges
		WHERE user_id = $1
		ORDER BY unlocked_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	defer rows.Close()

	var badges []domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Icon, &b.Description, &b.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.XP, &u.Level, &u.QuestsCompleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
