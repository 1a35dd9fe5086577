package domain

import "errors"

// Sentinel errors returned by repositories. Callers branch with errors.Is and
// translate them into status codes at the presentation layer.
var (
	// ErrNotFound means the requested ID has no row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail means a unique constraint on users.email was violated.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrOwnerNotFound means a post references a user ID with no live row.
	ErrOwnerNotFound = errors.New("owning user not found")
)
