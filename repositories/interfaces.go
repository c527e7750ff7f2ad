package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/campusboard/server/models"
)

// ErrNotFound is returned (wrapped) when a lookup or update matches no row
var ErrNotFound = errors.New("record not found")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// The context passed to fn carries the transaction, so repositories
	// called with it join the transaction. Commits if fn succeeds, rolls
	// back on error or panic.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// PostRepository handles post data operations
type PostRepository interface {
	// Create inserts a post and fills in its ID and timestamps
	Create(ctx context.Context, post *models.Post) error

	// GetByID retrieves a post by ID, including the author's nickname
	GetByID(ctx context.Context, id int64) (*models.Post, error)

	// List retrieves posts newest first
	List(ctx context.Context, limit, offset int) ([]*models.Post, error)

	// Count returns the total number of posts
	Count(ctx context.Context) (int64, error)

	// ListByAuthor retrieves summaries of an author's posts, newest first
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.PostSummary, error)

	// IncrementViewCount atomically adds one view and returns the new count
	IncrementViewCount(ctx context.Context, id int64) (int64, error)

	// Update updates title and content
	Update(ctx context.Context, post *models.Post) error

	// Delete deletes a post and, by cascade, its comments
	Delete(ctx context.Context, id int64) error
}

// CommentRepository handles comment data operations
type CommentRepository interface {
	// Create inserts a comment and fills in its ID and timestamps
	Create(ctx context.Context, comment *models.Comment) error

	// GetByID retrieves a comment by ID
	GetByID(ctx context.Context, id int64) (*models.Comment, error)

	// ListByPost retrieves a page of a post's comments, oldest first
	ListByPost(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, error)

	// ListAllByPost retrieves every comment of a post, oldest first
	ListAllByPost(ctx context.Context, postID int64) ([]*models.Comment, error)

	// CountByPost returns the number of comments on a post
	CountByPost(ctx context.Context, postID int64) (int64, error)

	// ListByAuthor retrieves summaries of an author's comments, newest first
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.CommentSummary, error)

	// Update updates the content
	Update(ctx context.Context, comment *models.Comment) error

	// Delete deletes a comment
	Delete(ctx context.Context, id int64) error
}

// UserRepository reads Supabase auth users
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// UpdateNickname stores the nickname in the user's metadata
	UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Posts    PostRepository
	Comments CommentRepository
	Users    UserRepository
}
