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

// PostRepository implements the repositories.PostRepository interface
type PostRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *DB, logger *zap.Logger) repositories.PostRepository {
	return &PostRepository{
		db:     db,
		logger: logger,
	}
}

// postColumns selects a post with its author's nickname from Supabase metadata
const postColumns = `
	p.id, p.title, p.content, p.author_id,
	COALESCE(u.raw_user_meta_data->>'nickname', ''),
	p.view_count, p.created_at, p.updated_at
`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	var nickname string

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.AuthorID,
		&nickname,
		&post.ViewCount,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.AuthorNickname = models.NicknameOrDefault(nickname)
	return post, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (title, content, author_id, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		post.Title,
		post.Content,
		post.AuthorID,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID)

	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	r.logger.Debug("post created", zap.Int64("id", post.ID), zap.String("author_id", post.AuthorID.String()))
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN auth.users u ON u.id = p.author_id
		WHERE p.id = $1
	`

	executor := GetExecutor(ctx, r.db)
	post, err := scanPost(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// List retrieves posts newest first
func (r *PostRepository) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		LEFT JOIN auth.users u ON u.id = p.author_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

// Count returns the total number of posts
func (r *PostRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListByAuthor retrieves summaries of an author's posts
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.PostSummary, error) {
	query := `
		SELECT id, title, created_at
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	defer rows.Close()

	summaries := []*models.PostSummary{}
	for rows.Next() {
		s := &models.PostSummary{}
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post summaries: %w", err)
	}

	return summaries, nil
}

// IncrementViewCount adds one view in a single statement, so concurrent
// readers never lose an increment
func (r *PostRepository) IncrementViewCount(ctx context.Context, id int64) (int64, error) {
	query := `UPDATE posts SET view_count = view_count + 1 WHERE id = $1 RETURNING view_count`

	var views int64
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, id).Scan(&views); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("post %d: %w", id, repositories.ErrNotFound)
		}
		return 0, fmt.Errorf("failed to increment view count: %w", err)
	}

	return views, nil
}

// Update updates a post's title and content
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $2, content = $3, updated_at = $4
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, post.ID, post.Title, post.Content, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	if err := requireAffected(result, "post", post.ID); err != nil {
		return err
	}

	r.logger.Debug("post updated", zap.Int64("id", post.ID))
	return nil
}

// Delete deletes a post
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if err := requireAffected(result, "post", id); err != nil {
		return err
	}

	r.logger.Debug("post deleted", zap.Int64("id", id))
	return nil
}

func requireAffected(result sql.Result, entity string, id interface{}) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %v: %w", entity, id, repositories.ErrNotFound)
	}
	return nil
}
