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

// CommentRepository implements the repositories.CommentRepository interface
type CommentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *DB, logger *zap.Logger) repositories.CommentRepository {
	return &CommentRepository{
		db:     db,
		logger: logger,
	}
}

const commentColumns = `
	c.id, c.post_id, c.content, c.author_id,
	COALESCE(u.raw_user_meta_data->>'nickname', ''),
	c.created_at, c.updated_at
`

func scanComment(row rowScanner) (*models.Comment, error) {
	comment := &models.Comment{}
	var nickname string

	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.Content,
		&comment.AuthorID,
		&nickname,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	comment.AuthorNickname = models.NicknameOrDefault(nickname)
	return comment, nil
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (post_id, content, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		comment.PostID,
		comment.Content,
		comment.AuthorID,
		comment.CreatedAt,
		comment.UpdatedAt,
	).Scan(&comment.ID)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	r.logger.Debug("comment created",
		zap.Int64("id", comment.ID),
		zap.Int64("post_id", comment.PostID),
	)
	return nil
}

// GetByID retrieves a comment by ID
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		LEFT JOIN auth.users u ON u.id = c.author_id
		WHERE c.id = $1
	`

	executor := GetExecutor(ctx, r.db)
	comment, err := scanComment(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListByPost retrieves a page of a post's comments, oldest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		LEFT JOIN auth.users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
		LIMIT $2 OFFSET $3
	`

	return r.queryComments(ctx, query, postID, limit, offset)
}

// ListAllByPost retrieves every comment of a post, oldest first
func (r *CommentRepository) ListAllByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		LEFT JOIN auth.users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`

	return r.queryComments(ctx, query, postID)
}

func (r *CommentRepository) queryComments(ctx context.Context, query string, args ...interface{}) ([]*models.Comment, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// CountByPost returns the number of comments on a post
func (r *CommentRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var count int64
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// ListByAuthor retrieves summaries of an author's comments
func (r *CommentRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.CommentSummary, error) {
	query := `
		SELECT id, post_id, content, created_at
		FROM comments
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by author: %w", err)
	}
	defer rows.Close()

	summaries := []*models.CommentSummary{}
	for rows.Next() {
		s := &models.CommentSummary{}
		if err := rows.Scan(&s.ID, &s.PostID, &s.Content, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment summaries: %w", err)
	}

	return summaries, nil
}

// Update updates a comment's content
func (r *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	query := `UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, comment.ID, comment.Content, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	if err := requireAffected(result, "comment", comment.ID); err != nil {
		return err
	}

	r.logger.Debug("comment updated", zap.Int64("id", comment.ID))
	return nil
}

// Delete deletes a comment
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	if err := requireAffected(result, "comment", id); err != nil {
		return err
	}

	r.logger.Debug("comment deleted", zap.Int64("id", id))
	return nil
}
