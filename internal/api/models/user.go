package models

import "time"

// User represents a user in the database.
type User struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	FName        string `db:"f_name"`
	PasswordHash string `db:"password_hash"`
}

// Session binds an opaque token to an authenticated user.
type Session struct {
	ID        string
	UserID    int64
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// RegisterRequest is the registration form. Lengths follow the users table
// columns; any non-empty username is accepted.
type RegisterRequest struct {
	Username string `form:"username" binding:"required,max=50"`
	FName    string `form:"fname" binding:"required,max=50"`
	Password string `form:"password" binding:"required,max=200"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}
