package entities

import "time"

// Post belongs to exactly one user. It carries the owner's ID rather than a
// back-pointer to the User, so the object graph stays acyclic and can never
// recurse during serialization.
type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    int       `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPost builds a pending post owned by userID.
func NewPost(title, content string, userID int) *Post {
	return &Post{
		Title:     title,
		Content:   content,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
}

// Persisted reports whether the store has assigned an identifier yet.
func (p *Post) Persisted() bool {
	return p.ID != 0
}
