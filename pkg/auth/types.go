package auth

import (
	"errors"
	"strconv"
	"time"
)

// User is an account that can sign in
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	DateJoined   time.Time  `json:"date_joined"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"-"`
	LastLogin    *time.Time `json:"-"`
}

// AuthContext is attached to authenticated requests
type AuthContext struct {
	User      *User
	TokenID   string
	ExpiresAt time.Time
}

// UserIDString returns the user ID in the form stored in logs and contexts
func (a *AuthContext) UserIDString() string {
	if a == nil || a.User == nil {
		return ""
	}
	return strconv.FormatInt(a.User.ID, 10)
}

// Session is the result of a successful register or login
type Session struct {
	User    *User  `json:"user"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrUserInactive       = errors.New("user account is disabled")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrMissingCredentials = errors.New(`must include "username" and "password"`)
)
