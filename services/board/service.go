package board

import (
	"context"
	"errors"

	"github.com/campusboard/server/models"
	"github.com/campusboard/server/repositories"
	"github.com/campusboard/server/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostInput carries the editable fields of a post
type PostInput struct {
	Title   string
	Content string
}

// Service handles posts and comments. Every mutation loads the target first,
// so a missing resource is reported as not found before ownership is checked.
type Service struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	txMgr    repositories.TransactionManager
	logger   *zap.Logger
}

// NewService creates a new board Service
func NewService(posts repositories.PostRepository, comments repositories.CommentRepository, txMgr repositories.TransactionManager, logger *zap.Logger) *Service {
	return &Service{
		posts:    posts,
		comments: comments,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// CreatePost creates a post owned by author
func (s *Service) CreatePost(ctx context.Context, author uuid.UUID, in PostInput) (*models.Post, error) {
	if author == uuid.Nil {
		return nil, services.ErrUnauthorized
	}

	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Post, error) {
		post := models.NewPost(in.Title, in.Content, author)
		if err := s.posts.Create(ctx, post); err != nil {
			return nil, services.ErrDatabaseError.Wrap(err)
		}

		// re-read for the author's nickname
		created, err := s.posts.GetByID(ctx, post.ID)
		if err != nil {
			return nil, repoError(err, services.ErrPostNotFound)
		}

		s.logger.Info("post created",
			zap.Int64("post_id", created.ID),
			zap.String("author_id", author.String()),
		)
		return created, nil
	})
}

// ListPosts returns a page of posts, newest first, and the total count
func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
	posts, err := s.posts.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, services.ErrDatabaseError.Wrap(err)
	}

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, 0, services.ErrDatabaseError.Wrap(err)
	}

	return posts, total, nil
}

// GetPost counts a view and returns the post with all of its comments
func (s *Service) GetPost(ctx context.Context, id int64) (*models.PostDetail, error) {
	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.PostDetail, error) {
		if _, err := s.posts.IncrementViewCount(ctx, id); err != nil {
			return nil, repoError(err, services.ErrPostNotFound)
		}

		post, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return nil, repoError(err, services.ErrPostNotFound)
		}

		comments, err := s.comments.ListAllByPost(ctx, id)
		if err != nil {
			return nil, services.ErrDatabaseError.Wrap(err)
		}

		return &models.PostDetail{Post: *post, Comments: comments}, nil
	})
}

// UpdatePost replaces title and content of a post owned by requester
func (s *Service) UpdatePost(ctx context.Context, requester *uuid.UUID, id int64, in PostInput) (*models.Post, error) {
	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Post, error) {
		post, err := s.loadOwnedPost(ctx, requester, id)
		if err != nil {
			return nil, err
		}

		post.Edit(in.Title, in.Content)
		if err := s.posts.Update(ctx, post); err != nil {
			return nil, repoError(err, services.ErrPostNotFound)
		}

		s.logger.Info("post updated", zap.Int64("post_id", id))
		return post, nil
	})
}

// DeletePost deletes a post owned by requester together with its comments
func (s *Service) DeletePost(ctx context.Context, requester *uuid.UUID, id int64) error {
	return services.WithTransaction(ctx, s.txMgr, func(ctx context.Context) error {
		if _, err := s.loadOwnedPost(ctx, requester, id); err != nil {
			return err
		}

		if err := s.posts.Delete(ctx, id); err != nil {
			return repoError(err, services.ErrPostNotFound)
		}

		s.logger.Info("post deleted", zap.Int64("post_id", id))
		return nil
	})
}

// CreateComment adds a comment by author to an existing post
func (s *Service) CreateComment(ctx context.Context, author uuid.UUID, postID int64, content string) (*models.Comment, error) {
	if author == uuid.Nil {
		return nil, services.ErrUnauthorized
	}

	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Comment, error) {
		if _, err := s.posts.GetByID(ctx, postID); err != nil {
			return nil, repoError(err, services.ErrPostNotFound)
		}

		comment := models.NewComment(postID, content, author)
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, services.ErrDatabaseError.Wrap(err)
		}

		created, err := s.comments.GetByID(ctx, comment.ID)
		if err != nil {
			return nil, repoError(err, services.ErrCommentNotFound)
		}

		s.logger.Info("comment created",
			zap.Int64("comment_id", created.ID),
			zap.Int64("post_id", postID),
			zap.String("author_id", author.String()),
		)
		return created, nil
	})
}

// ListComments returns a page of a post's comments, oldest first, and the total count
func (s *Service) ListComments(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, int64, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, 0, repoError(err, services.ErrPostNotFound)
	}

	comments, err := s.comments.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return nil, 0, services.ErrDatabaseError.Wrap(err)
	}

	total, err := s.comments.CountByPost(ctx, postID)
	if err != nil {
		return nil, 0, services.ErrDatabaseError.Wrap(err)
	}

	return comments, total, nil
}

// UpdateComment replaces the content of a comment owned by requester
func (s *Service) UpdateComment(ctx context.Context, requester *uuid.UUID, postID, commentID int64, content string) (*models.Comment, error) {
	return services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Comment, error) {
		comment, err := s.loadOwnedComment(ctx, requester, postID, commentID)
		if err != nil {
			return nil, err
		}

		comment.Edit(content)
		if err := s.comments.Update(ctx, comment); err != nil {
			return nil, repoError(err, services.ErrCommentNotFound)
		}

		s.logger.Info("comment updated", zap.Int64("comment_id", commentID), zap.Int64("post_id", postID))
		return comment, nil
	})
}

// DeleteComment deletes a comment owned by requester
func (s *Service) DeleteComment(ctx context.Context, requester *uuid.UUID, postID, commentID int64) error {
	return services.WithTransaction(ctx, s.txMgr, func(ctx context.Context) error {
		if _, err := s.loadOwnedComment(ctx, requester, postID, commentID); err != nil {
			return err
		}

		if err := s.comments.Delete(ctx, commentID); err != nil {
			return repoError(err, services.ErrCommentNotFound)
		}

		s.logger.Info("comment deleted", zap.Int64("comment_id", commentID), zap.Int64("post_id", postID))
		return nil
	})
}

func (s *Service) loadOwnedPost(ctx context.Context, requester *uuid.UUID, id int64) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, services.ErrPostNotFound)
	}

	if err := services.RequireOwner(requester, post.AuthorID); err != nil {
		s.logger.Warn("post modification denied",
			zap.Int64("post_id", id),
			zap.Stringer("requester", requesterID(requester)),
		)
		return nil, err
	}

	return post, nil
}

// loadOwnedComment treats a comment that exists under another post as missing
func (s *Service) loadOwnedComment(ctx context.Context, requester *uuid.UUID, postID, commentID int64) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, repoError(err, services.ErrCommentNotFound)
	}
	if !comment.BelongsTo(postID) {
		return nil, services.ErrCommentNotFound
	}

	if err := services.RequireOwner(requester, comment.AuthorID); err != nil {
		s.logger.Warn("comment modification denied",
			zap.Int64("comment_id", commentID),
			zap.Stringer("requester", requesterID(requester)),
		)
		return nil, err
	}

	return comment, nil
}

// repoError maps repositories.ErrNotFound to notFound and anything else to a
// database error
func repoError(err error, notFound *services.DomainError) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound.Wrap(err)
	}
	return services.ErrDatabaseError.Wrap(err)
}

func requesterID(requester *uuid.UUID) uuid.UUID {
	if requester == nil {
		return uuid.Nil
	}
	return *requester
}
