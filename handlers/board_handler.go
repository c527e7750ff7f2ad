package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/campusboard/server/middleware"
	"github.com/campusboard/server/models"
	"github.com/campusboard/server/services/board"
	"github.com/campusboard/server/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostRequest is the body of POST and PUT /api/board/posts
type PostRequest struct {
	Title   string `json:"title" validate:"notblank"`
	Content string `json:"content" validate:"notblank"`
}

// CommentRequest is the body of POST and PUT on comments
type CommentRequest struct {
	Content string `json:"content" validate:"notblank"`
}

// PostListItem is a post as shown in the list view
type PostListItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	AuthorID  uuid.UUID `json:"authorId"`
	ViewCount int64     `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// BoardService defines the board operations used by the handler
type BoardService interface {
	CreatePost(ctx context.Context, author uuid.UUID, in board.PostInput) (*models.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, int64, error)
	GetPost(ctx context.Context, id int64) (*models.PostDetail, error)
	UpdatePost(ctx context.Context, requester *uuid.UUID, id int64, in board.PostInput) (*models.Post, error)
	DeletePost(ctx context.Context, requester *uuid.UUID, id int64) error

	CreateComment(ctx context.Context, author uuid.UUID, postID int64, content string) (*models.Comment, error)
	ListComments(ctx context.Context, postID int64, limit, offset int) ([]*models.Comment, int64, error)
	UpdateComment(ctx context.Context, requester *uuid.UUID, postID, commentID int64, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, requester *uuid.UUID, postID, commentID int64) error
}

// BoardHandler handles post and comment HTTP requests
type BoardHandler struct {
	service BoardService
	logger  *zap.Logger
}

// NewBoardHandler creates a new BoardHandler
func NewBoardHandler(service BoardService, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreatePost handles POST /api/board/posts
func (h *BoardHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserIDFromContext(ctx)
	if userID == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req PostRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	post, err := h.service.CreatePost(ctx, *userID, board.PostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, fmt.Sprintf("/api/board/posts/%d", post.ID), post)
}

// HandleListPosts handles GET /api/board/posts
func (h *BoardHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePageRequest(r)

	posts, total, err := h.service.ListPosts(r.Context(), page.Size, page.Offset())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	items := make([]PostListItem, len(posts))
	for i, p := range posts {
		items[i] = PostListItem{
			ID:        p.ID,
			Title:     p.Title,
			AuthorID:  p.AuthorID,
			ViewCount: p.ViewCount,
			CreatedAt: p.CreatedAt,
		}
	}

	_ = utils.WriteOK(w, utils.NewPage(items, page.Page, page.Size, total))
}

// HandleGetPost handles GET /api/board/posts/{postId}
func (h *BoardHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	detail, err := h.service.GetPost(r.Context(), postID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, detail)
}

// HandleUpdatePost handles PUT /api/board/posts/{postId}
func (h *BoardHandler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	var req PostRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	requester := middleware.GetUserIDFromContext(r.Context())
	post, err := h.service.UpdatePost(r.Context(), requester, postID, board.PostInput{Title: req.Title, Content: req.Content})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, post)
}

// HandleDeletePost handles DELETE /api/board/posts/{postId}
func (h *BoardHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	requester := middleware.GetUserIDFromContext(r.Context())
	if err := h.service.DeletePost(r.Context(), requester, postID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// HandleCreateComment handles POST /api/board/posts/{postId}/comments
func (h *BoardHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	userID := middleware.GetUserIDFromContext(ctx)
	if userID == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req CommentRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	comment, err := h.service.CreateComment(ctx, *userID, postID, req.Content)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, fmt.Sprintf("/api/board/posts/%d/comments/%d", postID, comment.ID), comment)
}

// HandleListComments handles GET /api/board/posts/{postId}/comments
func (h *BoardHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}

	page := utils.ParsePageRequest(r)
	comments, total, err := h.service.ListComments(r.Context(), postID, page.Size, page.Offset())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, utils.NewPage(comments, page.Page, page.Size, total))
}

// HandleUpdateComment handles PUT /api/board/posts/{postId}/comments/{commentId}
func (h *BoardHandler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}

	var req CommentRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	requester := middleware.GetUserIDFromContext(r.Context())
	comment, err := h.service.UpdateComment(r.Context(), requester, postID, commentID, req.Content)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, comment)
}

// HandleDeleteComment handles DELETE /api/board/posts/{postId}/comments/{commentId}
func (h *BoardHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "commentId")
	if !ok {
		return
	}

	requester := middleware.GetUserIDFromContext(r.Context())
	if err := h.service.DeleteComment(r.Context(), requester, postID, commentID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// decodeAndValidate parses and validates a JSON body, writing a 400 on failure
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}

	if err := utils.ValidateStruct(dst); err != nil {
		logger.Debug("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

// pathID reads a positive integer route parameter
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		_ = utils.WriteBadRequest(w, fmt.Sprintf("Invalid %s", name), nil)
		return 0, false
	}
	return id, true
}
