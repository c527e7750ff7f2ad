package models

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a board post
type Post struct {
	ID             int64     `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Content        string    `json:"content" db:"content"`
	AuthorID       uuid.UUID `json:"authorId" db:"author_id"`
	AuthorNickname string    `json:"authorNickname" db:"-"`
	ViewCount      int64     `json:"viewCount" db:"view_count"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the Post model
func (Post) TableName() string {
	return "posts"
}

// NewPost creates a new Post owned by authorID. The ID is assigned by the database.
func NewPost(title, content string, authorID uuid.UUID) *Post {
	now := time.Now().UTC()
	return &Post{
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnedBy returns true if userID is the post author
func (p *Post) OwnedBy(userID uuid.UUID) bool {
	return p.AuthorID == userID
}

// Edit replaces title and content and bumps UpdatedAt
func (p *Post) Edit(title, content string) {
	p.Title = title
	p.Content = content
	p.UpdatedAt = time.Now().UTC()
}

// PostDetail is a post together with its comments, oldest first
type PostDetail struct {
	Post
	Comments []*Comment `json:"comments"`
}

// PostSummary is the short form of a post shown on a profile page
type PostSummary struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
