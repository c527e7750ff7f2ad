package user

import (
	"context"
	"errors"
	"strings"

	"github.com/campusboard/server/models"
	"github.com/campusboard/server/repositories"
	"github.com/campusboard/server/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service serves the signed-in user's own profile
type Service struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	logger   *zap.Logger
}

// NewService creates a new user Service
func NewService(users repositories.UserRepository, posts repositories.PostRepository, comments repositories.CommentRepository, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		posts:    posts,
		comments: comments,
		logger:   logger,
	}
}

// GetProfile returns the user with summaries of everything they wrote
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}

	comments, err := s.comments.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}

	return &models.Profile{
		ID:       user.ID,
		Email:    user.Email,
		Nickname: user.DisplayNickname(),
		Posts:    posts,
		Comments: comments,
	}, nil
}

// UpdateNickname changes the nickname. Setting the current nickname again is a no-op.
func (s *Service) UpdateNickname(ctx context.Context, userID uuid.UUID, nickname string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, services.NewValidationError("nickname is required")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Nickname == nickname {
		return user, nil
	}

	if err := s.users.UpdateNickname(ctx, userID, nickname); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound.Wrap(err)
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}

	s.logger.Info("nickname updated", zap.String("user_id", userID.String()))

	user.Nickname = nickname
	return user, nil
}

func (s *Service) getUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound.Wrap(err)
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return user, nil
}
