package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment represents a comment on a board post
type Comment struct {
	ID             int64     `json:"id" db:"id"`
	PostID         int64     `json:"postId" db:"post_id"`
	Content        string    `json:"content" db:"content"`
	AuthorID       uuid.UUID `json:"authorId" db:"author_id"`
	AuthorNickname string    `json:"authorNickname" db:"-"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Comment model
func (Comment) TableName() string {
	return "comments"
}

// NewComment creates a new Comment on postID
func NewComment(postID int64, content string, authorID uuid.UUID) *Comment {
	now := time.Now().UTC()
	return &Comment{
		PostID:    postID,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BelongsTo returns true if the comment was left on postID
func (c *Comment) BelongsTo(postID int64) bool {
	return c.PostID == postID
}

// Edit replaces the content and bumps UpdatedAt
func (c *Comment) Edit(content string) {
	c.Content = content
	c.UpdatedAt = time.Now().UTC()
}

// CommentSummary is the short form of a comment shown on a profile page
type CommentSummary struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"postId" db:"post_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
