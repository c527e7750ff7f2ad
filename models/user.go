package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultNickname is shown for users who never set a nickname
const DefaultNickname = "익명"

// User is a Supabase auth user as seen by the board. Rows live in auth.users
// and are owned by Supabase; the board only reads them and edits the nickname
// stored in raw_user_meta_data.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Nickname  string    `json:"nickname" db:"nickname"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "auth.users"
}

// DisplayNickname returns the nickname, or DefaultNickname when it is blank
func (u *User) DisplayNickname() string {
	return NicknameOrDefault(u.Nickname)
}

// NicknameOrDefault returns nickname trimmed, or DefaultNickname when blank
func NicknameOrDefault(nickname string) string {
	if n := strings.TrimSpace(nickname); n != "" {
		return n
	}
	return DefaultNickname
}

// Profile is the signed-in user's own page
type Profile struct {
	ID       uuid.UUID         `json:"id"`
	Email    string            `json:"email"`
	Nickname string            `json:"nickname"`
	Posts    []*PostSummary    `json:"posts"`
	Comments []*CommentSummary `json:"comments"`
}
