package handlers

import (
	"context"
	"net/http"

	"github.com/campusboard/server/middleware"
	"github.com/campusboard/server/models"
	"github.com/campusboard/server/services/authn"
	"github.com/campusboard/server/services/board"
	"github.com/campusboard/server/services/image"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockBoardService is a mock implementation of BoardService
type MockBoardService struct {
	mock.Mock
}

func (m *MockBoardService) CreatePost(ctx context.Context, author uuid.UUID, in board.PostInput) (*models.Post, error) {
	args := m.Called(ctx, author, in)
	if p := args.Get(0); p != nil {
		return p.(*models.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBoardService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, int64, error) {
	args := m.Called(ctx, limit, offset)
	if p := args.Get(0); p != nil {
		return p.([]*models.Post), args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *MockBoardService) GetPost(ctx context.Context, id int64) (*models.PostDetail, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.PostDetail), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBoardService) UpdatePost(ctx context.Context, requester *uuid.UUID, id int64, in board.PostInput) (*models.Post, error) {
	args := m.Called(ctx, requester, id, in)
	if p := args.Get(0); p != nil {
		return p.(*models.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBoardService) DeletePost(ctx context.Context, requester *uuid.UUID, id int64) error {
	args := m.Called(ctx, requester, id)
	return args.Error(0)
}

func (m *MockBoardService) CreateComment(ctx context.Context, author uuid.UUID, postID int64, content string) (*models.Comment, error) {
	args := m.Called(ctx, author, postID, content)
	if c := args.Get(0); c != nil {
		return c.(*models.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBoardService) ListComments(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, int64, error) {
	args := m.Called(ctx, postID, limit, offset)
	if c := args.Get(0); c != nil {
		return c.([]*models.Comment), args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *MockBoardService) UpdateComment(ctx context.Context, requester *uuid.UUID, postID, commentID int64, content string) (*models.Comment, error) {
	args := m.Called(ctx, requester, postID, commentID, content)
	if c := args.Get(0); c != nil {
		return c.(*models.Comment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBoardService) DeleteComment(ctx context.Context, requester *uuid.UUID, postID, commentID int64) error {
	args := m.Called(ctx, requester, postID, commentID)
	return args.Error(0)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) UpdateNickname(ctx context.Context, userID uuid.UUID, nickname string) (*models.User, error) {
	args := m.Called(ctx, userID, nickname)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuthService is a mock implementation of AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password, nickname string) (*authn.User, error) {
	args := m.Called(ctx, email, password, nickname)
	if u := args.Get(0); u != nil {
		return u.(*authn.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*authn.Session, error) {
	args := m.Called(ctx, email, password)
	if s := args.Get(0); s != nil {
		return s.(*authn.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*authn.Session, error) {
	args := m.Called(ctx, refreshToken)
	if s := args.Get(0); s != nil {
		return s.(*authn.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockImageService is a mock implementation of ImageService
type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) Analyze(ctx context.Context, img image.Image) (*image.Result, error) {
	args := m.Called(ctx, img)
	if r := args.Get(0); r != nil {
		return r.(*image.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

// withIdentity authenticates a test request as userID
func withIdentity(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), &middleware.Identity{UserID: userID}))
}

// withURLParams attaches chi route parameters to a test request
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
