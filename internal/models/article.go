package models

// Article represents an article that comments are attached to.
// Articles are created outside the comment engine; only CommentCount and
// UpdatedAt are written here, and only by comment creation.
type Article struct {
	ID           int64  `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	CommentCount int64  `json:"commentCount" db:"comment_count"`
	CreatedAt    string `json:"createdAt" db:"created_at"`
	UpdatedAt    string `json:"updatedAt" db:"updated_at"`
}
