package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campusboard/server/models"
	"github.com/campusboard/server/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserRepository implements the repositories.UserRepository interface on
// Supabase's auth.users table
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, COALESCE(email, ''), COALESCE(raw_user_meta_data->>'nickname', ''), created_at
		FROM auth.users
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	user := &models.User{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Nickname,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdateNickname sets raw_user_meta_data.nickname, keeping the other metadata keys
func (r *UserRepository) UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error {
	query := `
		UPDATE auth.users
		SET raw_user_meta_data = jsonb_set(COALESCE(raw_user_meta_data, '{}'::jsonb), '{nickname}', to_jsonb($2::text)),
			updated_at = now()
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, nickname)
	if err != nil {
		return fmt.Errorf("failed to update nickname: %w", err)
	}

	if err := requireAffected(result, "user", id); err != nil {
		return err
	}

	r.logger.Debug("nickname updated", zap.String("id", id.String()))
	return nil
}
