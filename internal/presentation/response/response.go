// Package response is the projection layer. The User/Post relationship is
// bidirectional in the store, so a naive recursive serialization would never
// terminate (user → posts → author → posts → …). Every response body is built
// through one of the constructors here, and each shape is one-directional:
// a post nested inside a user has no owner field, and a post served on its own
// carries the owner as a scalar ID, never as a nested user.
package response

import "github.com/kanehiroyuu/blog-api/internal/domain/entities"

// PostSummary is the shape of a post when nested inside UserResponse. It has
// no owner field of any kind, so the projection terminates here.
type PostSummary struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UserResponse is the shape of a user, with its posts as PostSummary values.
type UserResponse struct {
	ID    int           `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Posts []PostSummary `json:"posts"`
}

// PostResponse is the shape of a post requested directly or listed
// independently. The owner appears only as user_id.
type PostResponse struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  int    `json:"user_id"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries a human-readable failure detail. Internal error text
// never travels through it.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewUserResponse projects a user. Posts always marshals as an array, never
// null, even when the entity carries no posts.
func NewUserResponse(u *entities.User) UserResponse {
	posts := make([]PostSummary, 0, len(u.Posts))
	for _, p := range u.Posts {
		posts = append(posts, PostSummary{
			ID:      p.ID,
			Title:   p.Title,
			Content: p.Content,
		})
	}
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Posts: posts,
	}
}

// NewUserResponses projects a user slice.
func NewUserResponses(users []*entities.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// NewPostResponse projects a post.
func NewPostResponse(p *entities.Post) PostResponse {
	return PostResponse{
		ID:      p.ID,
		Title:   p.Title,
		Content: p.Content,
		UserID:  p.UserID,
	}
}

// NewPostResponses projects a post slice.
func NewPostResponses(posts []*entities.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewPostResponse(p))
	}
	return out
}
