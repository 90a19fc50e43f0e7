package domain

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role gates access to admin endpoints.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyPassword = errors.New("password is required")
	ErrWeakPassword  = errors.New("password must be at least 6 characters")
	ErrInvalidEmail  = errors.New("email must contain '@'")
	ErrInvalidRole   = errors.New("role is invalid")
)

// User represents an account able to sign in to the dashboard. Only the
// bcrypt hash of the password is ever stored.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	Role         Role
}

// NewUser builds a user ensuring required invariants.
func NewUser(username, password string, role Role) (*User, error) {
	user := &User{Role: role}
	if user.Role == "" {
		user.Role = RoleCustomer
	}
	if err := user.SetUsername(username); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// SetUsername trims and validates the username.
func (u *User) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	u.Username = username
	return nil
}

// SetPassword validates basic password strength and stores the bcrypt hash.
func (u *User) SetPassword(password string) error {
	password = strings.TrimSpace(password)
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) < 6 {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the stored hash with the supplied credentials.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))) == nil
}

// IsAdmin reports whether the user may access admin endpoints.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Validate re-applies core invariants for persistence.
func (u *User) Validate() error {
	if err := u.SetUsername(u.Username); err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return ErrEmptyPassword
	}
	if u.Email != "" && !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	switch u.Role {
	case RoleAdmin, RoleCustomer:
		return nil
	default:
		return ErrInvalidRole
	}
}
