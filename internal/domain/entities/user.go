package entities

import "time"

// User is the domain representation of a user, decoupled from its row shape.
// Posts is only populated by the eager-loading read paths.
type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Posts     []*Post   `json:"posts,omitempty"`
}

// NewUser builds a pending user. The store assigns the ID on Create.
func NewUser(name, email string) *User {
	return &User{
		Name:      name,
		Email:     email,
		CreatedAt: time.Now(),
	}
}

// Persisted reports whether the store has assigned an identifier yet.
func (u *User) Persisted() bool {
	return u.ID != 0
}
