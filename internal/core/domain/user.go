package domain

import "errors"

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
)

// User is a registered board member. Password holds the bcrypt hash, never
// the plain text.
type User struct {
	ID       int
	Username string
	Password string
	Email    string
}

// Validate checks the columns that are NOT NULL in the users table.
func (u User) Validate() error {
	if u.Username == "" {
		return ErrUsernameRequired
	}
	if u.Email == "" {
		return ErrEmailRequired
	}
	return nil
}
